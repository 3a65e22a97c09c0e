package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// Stored procedures owned by the hosted store. Their bodies are not part of
// this repository; only the signatures are relied on here.
const (
	rpcRegisterReferral     = "register_referral(?, ?)"
	rpcToggleReaction       = "toggle_reaction(?, ?, ?)"
	rpcReactionCount        = "reaction_count(?, ?)"
	rpcAdvanceGiveawayState = "advance_giveaway_state(?)"
)

func (r *Repository) callRPC(ctx context.Context, dest interface{}, call string, args ...interface{}) error {
	query, qArgs, err := squirrel.
		Select().
		Column(squirrel.Expr(call, args...)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build rpc %s: %w", call, err)
	}

	if err := r.db.GetContext(ctx, dest, query, qArgs...); err != nil {
		return mapError(err)
	}
	return nil
}

// RegisterReferral records referrer → referred. The store returns false
// when the edge is rejected (already referred, self referral, unknown user).
func (r *Repository) RegisterReferral(ctx context.Context, referrerID, referredID int64) (bool, error) {
	var registered bool
	if err := r.callRPC(ctx, &registered, rpcRegisterReferral, referrerID, referredID); err != nil {
		return false, fmt.Errorf("failed to register referral: %w", err)
	}
	return registered, nil
}

// ToggleReaction flips the user's reaction and reports whether it is now set.
func (r *Repository) ToggleReaction(ctx context.Context, giveawayID uuid.UUID, telegramID int64, emoji string) (bool, error) {
	var reacted bool
	if err := r.callRPC(ctx, &reacted, rpcToggleReaction, giveawayID, telegramID, emoji); err != nil {
		return false, fmt.Errorf("failed to toggle reaction: %w", err)
	}
	return reacted, nil
}

func (r *Repository) ReactionCount(ctx context.Context, giveawayID uuid.UUID, emoji string) (int, error) {
	var count int
	if err := r.callRPC(ctx, &count, rpcReactionCount, giveawayID, emoji); err != nil {
		return 0, fmt.Errorf("failed to count reactions: %w", err)
	}
	return count, nil
}

// AdvanceGiveawayState moves an expired giveaway to its next state and
// returns the new state.
func (r *Repository) AdvanceGiveawayState(ctx context.Context, giveawayID uuid.UUID) (string, error) {
	var state string
	if err := r.callRPC(ctx, &state, rpcAdvanceGiveawayState, giveawayID); err != nil {
		return "", fmt.Errorf("failed to advance giveaway %s: %w", giveawayID, err)
	}
	return state, nil
}
