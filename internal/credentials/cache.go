package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/oauth2"

	"github.com/FarhadManiCodes/gmail-file-mailer/internal/utils"
)

// Cache persists one token file per sender key. Entries older than the
// retention period are deleted on load.
type Cache struct {
	fs        afero.Fs
	dir       string
	retention time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

func NewCache(fs afero.Fs, dir string, retention time.Duration, log zerolog.Logger) *Cache {
	return &Cache{
		fs:        fs,
		dir:       dir,
		retention: retention,
		now:       time.Now,
		log:       log,
	}
}

// Key derives the cache key from a sender address.
func Key(sender string) string {
	return utils.SanitizeFilename(utils.LocalPart(sender))
}

// Path returns the file backing key.
func (c *Cache) Path(key string) string {
	return filepath.Join(c.dir, "token_"+key+".json")
}

// Load returns the cached token for key, or nil when there is none usable.
func (c *Cache) Load(key string) (*oauth2.Token, error) {
	path := c.Path(key)

	info, err := c.fs.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat token cache: %w", err)
	}

	if info.ModTime().Before(c.now().Add(-c.retention)) {
		c.log.Info().Str("key", key).Time("saved", info.ModTime()).Msg("cached token past retention, discarding")
		return nil, c.Delete(key)
	}

	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read token cache: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("unreadable token cache, discarding")
		return nil, c.Delete(key)
	}
	return &tok, nil
}

// Save overwrites the entry for key.
func (c *Cache) Save(key string, tok *oauth2.Token) error {
	if err := utils.EnsureDirectory(c.fs, c.dir); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}

	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if err := afero.WriteFile(c.fs, c.Path(key), data, 0o600); err != nil {
		return fmt.Errorf("write token cache: %w", err)
	}
	return nil
}

// Delete removes the entry for key. A missing entry is not an error.
func (c *Cache) Delete(key string) error {
	err := c.fs.Remove(c.Path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token cache: %w", err)
	}
	return nil
}
