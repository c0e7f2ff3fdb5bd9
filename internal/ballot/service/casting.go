package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/openballot/ballotd/internal/ballot/domain"
	"github.com/openballot/ballotd/internal/ballot/store"
	"github.com/openballot/ballotd/pkg/cryptox"
	"github.com/openballot/ballotd/pkg/idx"
	"github.com/openballot/ballotd/pkg/slogx"
)

var (
	ErrCandidateNotInSession = errors.New("candidate is not part of the voter's session")
	ErrInvalidVoteToken      = errors.New("invalid vote token")
	ErrAlreadyVoted          = errors.New("voter has already voted")
)

// CastingService records votes. A ballot commits atomically: the vote record
// and the voter's has_voted flag change together or not at all, so a voter
// can never end up with two counted ballots.
type CastingService struct {
	Store store.Store
	Clock clock
}

// CastVote validates the full precondition chain and commits the ballot.
// Checks run in a fixed order so a request failing several preconditions
// always reports the same error: session, candidate, membership, token,
// duplicate vote, window.
func (s *CastingService) CastVote(ctx context.Context, voterID, candidateID, token string) (domain.Vote, error) {
	log := slogx.FromContext(ctx)

	// 1. Fetch the voter.
	voter, err := s.Store.Voters().GetVoterByID(ctx, voterID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Vote{}, ErrVoterNotFound
		}
		log.Error("failed to fetch voter", slog.Any("error", err))
		return domain.Vote{}, err
	}

	// 2. Fetch the voter's session.
	sess, err := s.Store.Sessions().GetSessionByID(ctx, voter.SessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Vote{}, ErrSessionNotFound
		}
		log.Error("failed to fetch session", slog.Any("error", err))
		return domain.Vote{}, err
	}

	// 3. Fetch the candidate and verify session membership.
	candidate, err := s.Store.Candidates().GetCandidateByID(ctx, candidateID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Vote{}, ErrCandidateNotFound
		}
		log.Error("failed to fetch candidate", slog.Any("error", err))
		return domain.Vote{}, err
	}
	if candidate.SessionID != voter.SessionID {
		log.Warn("vote attempted for candidate outside the voter's session",
			slog.String("voter_id", voter.ID),
			slog.String("candidate_id", candidate.ID),
		)
		return domain.Vote{}, ErrCandidateNotInSession
	}

	// 4. Verify the presented token against the stored hash. A voter with no
	// issued token fails here too.
	if token == "" || !voter.TokenGenerated || voter.TokenHash == "" ||
		cryptox.VerifyPassword(token, voter.TokenHash) != nil {
		log.Warn("vote attempted with invalid token",
			slog.String("voter_id", voter.ID),
		)
		return domain.Vote{}, ErrInvalidVoteToken
	}

	// 5. One ballot per voter.
	if voter.HasVoted {
		return domain.Vote{}, ErrAlreadyVoted
	}

	// 6. The window must be open at the instant of casting.
	if err := requireOpen(sess, s.Clock.now()); err != nil {
		return domain.Vote{}, err
	}

	// 7. Commit atomically. MarkVoterVoted is guarded by has_voted = 0, so
	// two concurrent casts with the same token cannot both insert a vote.
	vote := domain.Vote{
		ID:               idx.New().String(),
		CandidateID:      candidate.ID,
		SessionID:        voter.SessionID,
		TokenFingerprint: cryptox.FingerprintToken(token),
		CreatedAt:        s.Clock.now(),
	}
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Voters().MarkVoterVoted(ctx, voter.ID); err != nil {
			return err
		}
		return tx.Votes().CreateVote(ctx, vote)
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			log.Warn("concurrent vote cast lost the race",
				slog.String("voter_id", voter.ID),
			)
			return domain.Vote{}, ErrAlreadyVoted
		}
		log.Error("failed to record vote", slog.Any("error", err))
		return domain.Vote{}, err
	}

	log.Info("vote cast",
		slog.String("voter_id", voter.ID),
		slog.String("session_id", voter.SessionID),
		slog.String("candidate_id", candidate.ID),
	)
	return vote, nil
}

// CandidateTally is a candidate's running vote count.
type CandidateTally struct {
	Candidate domain.Candidate
	Votes     int
}

// TallyByCandidate returns the vote count for a single candidate.
func (s *CastingService) TallyByCandidate(ctx context.Context, candidateID string) (CandidateTally, error) {
	candidate, err := s.Store.Candidates().GetCandidateByID(ctx, candidateID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return CandidateTally{}, ErrCandidateNotFound
		}
		return CandidateTally{}, err
	}
	count, err := s.Store.Votes().CountVotesByCandidate(ctx, candidate.ID)
	if err != nil {
		return CandidateTally{}, err
	}
	return CandidateTally{Candidate: candidate, Votes: count}, nil
}
