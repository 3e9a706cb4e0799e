package app

import (
	"errors"
	"math/rand/v2"
	"net"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/alleybloom/live/internal/domain"
)

const (
	codePrefix  = "ALLEY-"
	codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeSuffix  = 4
)

var ErrDirectoryFull = errors.New("room code limit reached")

// Directory hands out short shareable room codes resolving to a creator's
// network address, for out-of-band peer discovery before signaling starts.
// Entries have no TTL; they live until deleted or the process exits.
type Directory struct {
	mu       sync.Mutex
	codes    map[string]*domain.RoomCode
	maxCodes int
}

func NewDirectory(maxCodes int) *Directory {
	return &Directory{codes: make(map[string]*domain.RoomCode), maxCodes: maxCodes}
}

// Create draws a fresh ALLEY-XXXX code, retrying on collision against live
// codes, and records the creator's address. Loopback addresses are
// normalized to a literal "localhost" so shared links work on the LAN.
func (d *Directory) Create(remoteAddr string) (*domain.RoomCode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.maxCodes > 0 && len(d.codes) >= d.maxCodes {
		return nil, ErrDirectoryFull
	}

	var code string
	for {
		code = codePrefix + randSuffix()
		if _, taken := d.codes[code]; !taken {
			break
		}
	}

	rc := &domain.RoomCode{
		Code:        code,
		Address:     normalizeAddr(remoteAddr),
		CreatorAddr: remoteAddr,
		CreatedAt:   time.Now(),
	}
	d.codes[code] = rc
	log.Info().Str("module", "app.directory").Str("code", code).Str("address", rc.Address).Msg("created room code")
	return rc, nil
}

// Lookup resolves a code case-insensitively.
func (d *Directory) Lookup(code string) (*domain.RoomCode, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rc, ok := d.codes[strings.ToUpper(code)]
	return rc, ok
}

// List returns all live codes, oldest first.
func (d *Directory) List() []*domain.RoomCode {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*domain.RoomCode, 0, len(d.codes))
	for _, rc := range d.codes {
		out = append(out, rc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Delete removes a code and reports whether it existed.
func (d *Directory) Delete(code string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := strings.ToUpper(code)
	if _, ok := d.codes[key]; !ok {
		return false
	}
	delete(d.codes, key)
	log.Info().Str("module", "app.directory").Str("code", key).Msg("deleted room code")
	return true
}

func (d *Directory) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.codes)
}

func randSuffix() string {
	b := make([]byte, codeSuffix)
	for i := range b {
		b[i] = codeCharset[rand.IntN(len(codeCharset))]
	}
	return string(b)
}

func normalizeAddr(addr string) string {
	host := addr
	if h, _, err := net.SplitHostPort(addr); err == nil {
		host = h
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return "localhost"
	}
	return host
}
