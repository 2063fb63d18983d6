package brand

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/timmy/tractorhub/internal/logger"
	"github.com/titanous/json5"
)

// Assets holds optional per-brand lookup data.
type Assets struct {
	Websites map[string]string
	Logos    map[string]string
}

// LoadMap reads a brand→string JSON map. Comments and trailing commas are
// accepted. A missing file yields an empty map and a warning.
// Keys are canonicalised through r when r is non-nil.
func LoadMap(ctx context.Context, fs afero.Fs, path string, r *Resolver) (map[string]string, error) {
	out := make(map[string]string)
	if path == "" {
		return out, nil
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.FromContext(ctx).WithField("path", path).Warn("Brand map not found, continuing without it")
			return out, nil
		}
		return out, fmt.Errorf("read brand map %s: %w", path, err)
	}

	var raw map[string]string
	if err := json5.Unmarshal(data, &raw); err != nil {
		return out, fmt.Errorf("parse brand map %s: %w", path, err)
	}
	for k, v := range raw {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if r != nil {
			if b, ok := r.Canonical(k); ok {
				k = b
			}
		}
		out[k] = v
	}
	return out, nil
}

// LoadAssets loads both brand maps. Read or parse errors are logged and the
// affected map is left empty.
func LoadAssets(ctx context.Context, fs afero.Fs, websitesPath, logosPath string, r *Resolver) *Assets {
	log := logger.FromContext(ctx)
	websites, err := LoadMap(ctx, fs, websitesPath, r)
	if err != nil {
		log.WithError(err).Warn("Ignoring brand website map")
	}
	logos, err := LoadMap(ctx, fs, logosPath, r)
	if err != nil {
		log.WithError(err).Warn("Ignoring brand logo map")
	}
	return &Assets{Websites: websites, Logos: logos}
}

// Website returns the configured website for a canonical brand.
func (a *Assets) Website(brand string) (string, bool) {
	if a == nil {
		return "", false
	}
	u, ok := a.Websites[brand]
	return u, ok
}

// IsLogo reports whether candidate points at any configured brand logo.
// Query strings and scheme differences are ignored.
func (a *Assets) IsLogo(candidate string) bool {
	if a == nil || len(a.Logos) == 0 {
		return false
	}
	c := comparableURL(candidate)
	for _, logo := range a.Logos {
		if comparableURL(logo) == c {
			return true
		}
	}
	return false
}

func comparableURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return strings.ToLower(raw)
	}
	return strings.ToLower(u.Host + strings.TrimSuffix(u.Path, "/"))
}
