package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
	"sync"

	"healthdir/internal/domain"
)

// ---- fakes ----

// fakeCache stores JSON like the redis adapter does, so hits decode into any
// destination type.
type fakeCache struct {
	mu          sync.Mutex
	store       map[string][]byte
	invalidated int
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

func (c *fakeCache) DelPrefix(ctx context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.store {
		if strings.HasPrefix(k, prefix) {
			delete(c.store, k)
		}
	}
	c.invalidated++
	return nil
}

func (c *fakeCache) Incr(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	var n int64
	if b, ok := c.store[key]; ok {
		if err := json.Unmarshal(b, &n); err != nil {
			return 0, err
		}
	}
	n++
	c.store[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

// keys lists the cached public entries, leaving out the generation counter.
func (c *fakeCache) keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.store))
	for k := range c.store {
		if strings.HasPrefix(k, "public:") {
			out = append(out, k)
		}
	}
	return out
}

type fakeImages struct {
	saved []string
}

func (f *fakeImages) Save(ctx context.Context, u domain.Upload) (string, error) {
	b, err := io.ReadAll(u.Body)
	if err != nil {
		return "", err
	}
	f.saved = append(f.saved, string(b))
	return "/uploads/" + u.Filename, nil
}

// plainHasher "hashes" by prefixing, enough to prove the hash is stored.
type plainHasher struct{}

func (plainHasher) Hash(pw string) (string, error) { return "hashed:" + pw, nil }

func (plainHasher) Compare(hash, pw string) error {
	if hash != "hashed:"+pw {
		return errors.New("mismatch")
	}
	return nil
}

type fixedTokens struct{}

func (fixedTokens) Issue(u domain.AdminUser) (string, error) { return "tok-" + u.Username, nil }

func (fixedTokens) Verify(tok string) (string, error) {
	if u, ok := strings.CutPrefix(tok, "tok-"); ok {
		return u, nil
	}
	return "", errors.New("bad token")
}
