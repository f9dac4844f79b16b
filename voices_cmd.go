package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dgnsrekt/speak/tts"
	"github.com/spf13/cobra"
)

var (
	voicesMatch string

	voicesCmd = &cobra.Command{
		Use:     "voices",
		Short:   "List available voices",
		Long:    paragraph(fmt.Sprintf("\n%s the voices the engine offers. Pass --match to see which voice a name or language resolves to.", keyword("List"))),
		Example: paragraph("speak voices\nspeak voices --match de\nspeak voices --engine mock"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := tts.LoadConfigFromViper()
			if err != nil {
				return err
			}
			sess, err := openSession(cfg)
			if err != nil {
				return err
			}
			defer sess.Close() //nolint:errcheck

			voices := sess.ctrl.Voices()
			if len(voices) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No voices installed.")
				return nil
			}

			selected := sess.ctrl.Snapshot().Config.Voice
			if voicesMatch != "" {
				v, ok := sess.ctrl.Catalog().Match(voicesMatch)
				if !ok {
					return fmt.Errorf("no voice matches %q", voicesMatch)
				}
				selected = v.Name
			}

			fmt.Fprintln(cmd.OutOrStdout(), voiceTable(voices, selected))
			return nil
		},
	}
)

func voiceTable(voices []tts.Voice, selected string) string {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	highlight := cell.Foreground(lipgloss.Color("#04B575")).Bold(true)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderColumn(false).
		Headers("", "NAME", "LANGUAGE").
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return header
			case row >= 0 && row < len(voices) && voices[row].Name == selected:
				return highlight
			default:
				return cell
			}
		})

	for _, v := range voices {
		mark := ""
		if v.Name == selected {
			mark = "•"
		}
		t.Row(mark, v.Name, v.Language)
	}
	return t.String()
}

func init() {
	voicesCmd.Flags().StringVar(&voicesMatch, "match", "", "highlight the voice matching a name or language")
}
