package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/speak/tts"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	sayFile     string
	sayMarkdown bool
	sayTest     bool

	sayCmd = &cobra.Command{
		Use:     "say [TEXT...]",
		Short:   "Speak text without the interface",
		Long:    paragraph(fmt.Sprintf("\n%s the given text, a file, or stdin and exit when speech ends.", keyword("Speak"))),
		Example: paragraph("speak say Hello world\nspeak say --file notes.md\nspeak say --voice german Guten Tag\nspeak say --test --voice en-GB"),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				s   string
				err error
			)
			switch {
			case sayTest:
			case sayFile != "":
				var path string
				if path, err = documentPath(sayFile); err == nil {
					s, err = readSpeakable(path, sayMarkdown)
				}
			case len(args) > 0:
				s, err = speakableText([]byte(strings.Join(args, " ")), sayMarkdown)
			default:
				var b []byte
				if b, err = io.ReadAll(os.Stdin); err == nil {
					s, err = speakableText(b, sayMarkdown)
				}
			}
			if err != nil {
				return err
			}

			kind := tts.KindPlay
			if sayTest {
				kind = tts.KindTest
			}
			return speak(cmd.Context(), s, kind, cmd.OutOrStdout())
		},
	}
)

var errNothingToSay = errors.New("nothing to say")

// say speaks s and blocks until speech ends. voice, when set, overrides
// the configured voice query.
func say(ctx context.Context, s, voice string, w io.Writer) error {
	if voice != "" {
		viper.Set("tts.voice", voice)
	}
	return speak(ctx, s, tts.KindPlay, w)
}

func speak(ctx context.Context, s string, kind tts.RequestKind, w io.Writer) error {
	if kind == tts.KindPlay && strings.TrimSpace(s) == "" {
		return errNothingToSay
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	cfg, err := tts.LoadConfigFromViper()
	if err != nil {
		return err
	}
	sess, err := openSession(cfg)
	if err != nil {
		return err
	}
	defer sess.Close() //nolint:errcheck

	if kind == tts.KindTest && sess.ctrl.Snapshot().Config.Voice == "" {
		return errors.New("no voice selected to test")
	}

	done := make(chan tts.Snapshot, 1)
	started := false
	unsubscribe := sess.ctrl.Subscribe(func(snap tts.Snapshot) {
		// Runs on the controller loop.
		if snap.State.IsActive() {
			started = true
			return
		}
		if started && snap.State == tts.StateIdle {
			select {
			case done <- snap:
			default:
			}
		}
	})
	defer unsubscribe()

	if kind == tts.KindTest {
		err = sess.ctrl.Test()
	} else {
		if err := sess.ctrl.SetText(s); err != nil {
			return err
		}
		err = sess.ctrl.Play()
	}
	if err != nil {
		return err
	}

	snap := sess.ctrl.Snapshot()
	log.Debug("Speaking", "text", runewidth.Truncate(s, 48, "…"), "voice", snap.Config.Voice, "kind", kind)

	select {
	case snap = <-done:
	case <-ctx.Done():
		_ = sess.ctrl.Stop()
		select {
		case <-done:
		case <-time.After(time.Second):
		}
		fmt.Fprintln(w, "Stopped.")
		return nil
	}

	if snap.Error != "" {
		return errors.New(snap.Error)
	}
	return nil
}

func init() {
	sayCmd.Flags().StringVarP(&sayFile, "file", "f", "", "read text from a file")
	sayCmd.Flags().BoolVarP(&sayMarkdown, "markdown", "m", false, "treat input as markdown")
	sayCmd.Flags().BoolVar(&sayTest, "test", false, "speak the voice test phrase")
}
