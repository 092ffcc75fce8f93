// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/staff-directory/models"
	"github.com/danielhkuo/staff-directory/reconcile"
)

var ErrNoUsers = errors.New("no users retrieved from Microsoft Graph")

type UserLister interface {
	ListUsers(ctx context.Context) ([]reconcile.User, error)
}

type DirectoryReplacer interface {
	ReplaceDirectory(ctx context.Context, data models.DirectoryData) (models.ReplaceResult, error)
}

type Invalidator interface {
	Invalidate() error
}

// SyncResult summarizes one Graph sync.
type SyncResult struct {
	Users   int                  `json:"users"`
	Merged  []string             `json:"merged_departments"`
	Result  models.ReplaceResult `json:"result"`
	Elapsed time.Duration        `json:"elapsed"`
}

// Sync fetches all Graph users, reconciles them into departments and staff,
// replaces the directory and invalidates the public cache.
func Sync(ctx context.Context, lister UserLister, replacer DirectoryReplacer, cache Invalidator, opts reconcile.Options) (SyncResult, error) {
	start := time.Now()

	users, err := lister.ListUsers(ctx)
	if err != nil {
		return SyncResult{}, err
	}
	if len(users) == 0 {
		return SyncResult{}, ErrNoUsers
	}
	slog.Info("graph users fetched", "count", len(users), "duration_ms", time.Since(start).Milliseconds())

	normalized := reconcile.Normalize(reconcile.Build(users, opts))
	for _, name := range normalized.Merged {
		slog.Warn("merged duplicate department", "department", name)
	}

	result, err := replacer.ReplaceDirectory(ctx, normalized.Data)
	if err != nil {
		return SyncResult{}, fmt.Errorf("failed to replace directory: %w", err)
	}
	result.SkippedStaff += len(normalized.Skipped)

	if cache != nil {
		if err := cache.Invalidate(); err != nil {
			slog.Warn("failed to invalidate directory cache", "error", err)
		}
	}

	res := SyncResult{
		Users:   len(users),
		Merged:  normalized.Merged,
		Result:  result,
		Elapsed: time.Since(start),
	}
	slog.Info("graph sync completed",
		"users", res.Users,
		"departments", result.DepartmentCount,
		"staff", result.StaffCount,
		"duration_ms", res.Elapsed.Milliseconds(),
	)
	return res, nil
}
