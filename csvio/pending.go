// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package csvio

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/natefinch/atomic"

	"github.com/danielhkuo/staff-directory/auth"
)

var ErrPendingNotFound = errors.New("import file not found, please upload the file again")

var tokenPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

// PendingStore keeps uploaded CSV files between preview and confirm. Files
// are keyed by import type, user and a random token so one admin cannot
// confirm another's upload.
type PendingStore struct {
	dir string
}

func NewPendingStore(dir string) (*PendingStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create import dir: %w", err)
	}
	return &PendingStore{dir: dir}, nil
}

func (p *PendingStore) path(importType, userID, token string) (string, error) {
	if _, err := HeaderFor(importType); err != nil {
		return "", err
	}
	if !tokenPattern.MatchString(token) || !auth.ValidID(userID) {
		return "", ErrPendingNotFound
	}
	return filepath.Join(p.dir, importType+"_"+userID+"_"+token+".csv"), nil
}

// Save stores data and returns the token needed to load it.
func (p *PendingStore) Save(importType, userID string, data []byte) (string, error) {
	token, err := auth.GenerateToken(16)
	if err != nil {
		return "", err
	}
	path, err := p.path(importType, userID, token)
	if err != nil {
		return "", err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to store import file: %w", err)
	}
	return token, nil
}

func (p *PendingStore) Load(importType, userID, token string) ([]byte, error) {
	path, err := p.path(importType, userID, token)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrPendingNotFound
	}
	return data, err
}

func (p *PendingStore) Remove(importType, userID, token string) error {
	path, err := p.path(importType, userID, token)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
