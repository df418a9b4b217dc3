package command

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"

	"golang.org/x/term"

	"github.com/bcdh/teicompleter/internal/config"
	"github.com/bcdh/teicompleter/internal/transform"
)

type configKey struct{}

func prompt(prompt string) ([]byte, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		if _, err := os.Stderr.WriteString(prompt); err != nil {
			return nil, err
		}
	}
	return readLine(os.Stdin)
}

// cloned from term.readPasswordLine.
func readLine(stdin io.Reader) ([]byte, error) {
	var buf [1]byte
	var ret []byte

	for {
		n, err := stdin.Read(buf[:])
		if n > 0 {
			switch buf[0] {
			case '\b':
				if len(ret) > 0 {
					ret = ret[:len(ret)-1]
				}
			case '\n':
				if runtime.GOOS != "windows" {
					return ret, nil
				}
				// otherwise ignore \n
			case '\r':
				if runtime.GOOS == "windows" {
					return ret, nil
				}
				// otherwise ignore \r
			default:
				ret = append(ret, buf[0]) //nolint:gosec // erroneous error
			}
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) && len(ret) > 0 {
				return ret, nil
			}
			return ret, err
		}
	}
}

func version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown-dev"
	}
	ver := "unknown"
	dirty := false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			ver = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	if dirty {
		ver += "-dev"
	}
	return ver
}

func loadConfig(ctx context.Context) (*config.Config, *slog.Logger, error) {
	cfg, ok := ctx.Value(configKey{}).(*config.Config)
	if !ok {
		return nil, nil, errors.New("config file resolution failed")
	}
	return cfg, slog.Default(), nil
}

func newEngine(cfg *config.Config, logger *slog.Logger) (*transform.Engine, *transform.Loader, error) {
	loader, err := transform.NewLoader(cfg.CacheSize)
	if err != nil {
		return nil, nil, err
	}
	engine := transform.NewEngine(loader,
		transform.WithTimeout(cfg.ScriptTimeout),
		transform.WithDescriptionFormat(cfg.DescriptionFormat),
		transform.WithLogger(logger),
	)
	return engine, loader, nil
}

// readInput reads the named file, or stdin for "" and "-". The content type is
// inferred from the file extension unless given explicitly.
func readInput(stdin io.Reader, path, contentType string) ([]byte, string, error) {
	if contentType == "" {
		contentType = "application/json"
		if ext := strings.ToLower(filepath.Ext(path)); ext != "" {
			if guessed := mime.TypeByExtension(ext); guessed != "" {
				contentType = guessed
			}
		}
	}
	if path == "" || path == "-" {
		body, err := io.ReadAll(stdin)
		return body, contentType, err
	}
	body, err := os.ReadFile(path) //nolint:gosec // reading user supplied input is the point
	return body, contentType, err
}
