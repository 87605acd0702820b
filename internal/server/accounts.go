package server

import (
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/omochice/minechat/pkg/protocol"
)

const defaultNickname = "anonymous"

// Accounts is the in-memory registry of issued account hashes.
type Accounts struct {
	mu     sync.RWMutex
	byHash map[string]string
}

// NewAccounts creates an empty registry.
func NewAccounts() *Accounts {
	return &Accounts{byHash: make(map[string]string)}
}

// Register issues a new account hash for nickname.
func (a *Accounts) Register(nickname string) protocol.Reply {
	nickname = lo.CoalesceOrEmpty(protocol.Clean(nickname), defaultNickname)
	hash := uuid.NewString()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.byHash[hash] = nickname

	return protocol.Reply{Nickname: nickname, AccountHash: hash}
}

// Lookup returns the account issued for hash.
func (a *Accounts) Lookup(hash string) (protocol.Reply, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	nickname, ok := a.byHash[hash]
	if !ok {
		return protocol.Reply{}, false
	}
	return protocol.Reply{Nickname: nickname, AccountHash: hash}, true
}

// Count returns the number of registered accounts.
func (a *Accounts) Count() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.byHash)
}
