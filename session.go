package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/speak/internal/cache"
	"github.com/dgnsrekt/speak/internal/text"
	"github.com/dgnsrekt/speak/tts"
	"github.com/dgnsrekt/speak/tts/engines/espeak"
	"github.com/dgnsrekt/speak/tts/engines/mock"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
)

// session owns an engine, its audio cache and the controller driving it.
type session struct {
	ctrl   *tts.Controller
	engine tts.Engine
	cache  *cache.Manager
	cancel context.CancelFunc
}

func openSession(cfg tts.Config) (*session, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &session{cancel: cancel}

	engine, err := s.newEngine(ctx, cfg)
	if err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	s.engine = engine

	// The configured voice may be a query, so it is resolved against the
	// catalog after the controller has picked its default.
	playback := cfg.Playback()
	playback.Voice = ""

	ctrl, err := tts.NewController(engine,
		tts.WithLogger(log.Default().WithPrefix("tts")),
		tts.WithSubmitDelay(cfg.SubmitDelay),
		tts.WithConfig(playback),
	)
	if err != nil {
		s.Close() //nolint:errcheck
		if errors.Is(err, tts.ErrEngineUnavailable) {
			return nil, fmt.Errorf("speech synthesis is not supported here (%s engine): %w", cfg.Engine, err)
		}
		return nil, err
	}
	s.ctrl = ctrl

	if cfg.Voice != "" {
		if err := s.selectVoice(cfg.Voice); err != nil {
			log.Warn("Using default voice", "err", err)
		}
	}
	return s, nil
}

func (s *session) newEngine(ctx context.Context, cfg tts.Config) (tts.Engine, error) {
	switch cfg.Engine {
	case tts.EngineMock:
		e := mock.New()
		e.Simulate(cfg.Mock.StartDelay, cfg.Mock.WordsPerMinute)
		return e, nil

	case tts.EngineEspeak:
		opts := []espeak.Option{espeak.WithLogger(log.Default().WithPrefix("espeak"))}
		if cfg.Cache.Enabled {
			m, err := openCache(cfg.Cache)
			if err != nil {
				return nil, err
			}
			m.Start(ctx)
			s.cache = m
			opts = append(opts, espeak.WithCache(m))
		}
		return espeak.New(cfg.Espeak, opts...), nil

	default:
		return nil, fmt.Errorf("unsupported engine: %s", cfg.Engine)
	}
}

// selectVoice picks the catalog voice best matching query.
func (s *session) selectVoice(query string) error {
	v, ok := s.ctrl.Catalog().Match(query)
	if !ok {
		return fmt.Errorf("no voice matches %q", query)
	}
	name := v.Name
	return s.ctrl.SetConfig(tts.ConfigUpdate{Voice: &name})
}

// Close stops speech and releases the engine and cache.
func (s *session) Close() error {
	var errs []error
	if s.ctrl != nil {
		errs = append(errs, s.ctrl.Close())
	}
	if c, ok := s.engine.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	s.cancel()
	if s.cache != nil {
		errs = append(errs, s.cache.Close())
	}
	return errors.Join(errs...)
}

func openCache(cfg tts.CacheConfig) (*cache.Manager, error) {
	dir, err := cacheDir(cfg)
	if err != nil {
		return nil, err
	}
	m, err := cache.NewManager(cache.Config{
		MemoryCapacity:   int64(cfg.MemoryMB) << 20,
		DiskCapacity:     int64(cfg.DiskMB) << 20,
		Dir:              dir,
		CompressionLevel: 3,
		MaxAge:           cfg.MaxAge,
		CleanupInterval:  cfg.CleanupEvery,
	}, log.Default().WithPrefix("cache"))
	if err != nil {
		return nil, fmt.Errorf("unable to open audio cache: %w", err)
	}
	return m, nil
}

// cacheDir returns the configured cache directory, or one in the user
// cache directory.
func cacheDir(cfg tts.CacheConfig) (string, error) {
	if cfg.Dir != "" {
		dir, err := homedir.Expand(cfg.Dir)
		if err != nil {
			return "", fmt.Errorf("unable to expand cache dir: %w", err)
		}
		return dir, nil
	}
	dir, err := gap.NewScope(gap.User, "speak").CacheDir()
	if err != nil {
		return "", fmt.Errorf("unable to find cache directory: %w", err)
	}
	return filepath.Join(dir, "audio"), nil
}

// speakableText converts input to text for the engine.
func speakableText(b []byte, isMarkdown bool) (string, error) {
	if !isMarkdown {
		return string(b), nil
	}
	return text.Markdown(b, text.Options{})
}

func readSpeakable(path string, isMarkdown bool) (string, error) {
	p, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("unable to expand path: %w", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return "", fmt.Errorf("unable to open file: %w", err)
	}
	return speakableText(b, isMarkdown || isMarkdownFile(p))
}
