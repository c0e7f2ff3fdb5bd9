package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/openballot/ballotd/internal/ballot/domain"
	"github.com/openballot/ballotd/internal/ballot/store"
	"github.com/openballot/ballotd/pkg/cryptox"
	"github.com/openballot/ballotd/pkg/idx"
	"github.com/openballot/ballotd/pkg/mailx"
	"github.com/openballot/ballotd/pkg/slogx"
)

var (
	ErrEmptyRoster   = errors.New("roster file contains no rows")
	ErrMissingColumn = errors.New("roster file is missing the email column")
)

// Per-row upload outcomes.
const (
	RowCreated   = "created"
	RowDuplicate = "duplicate"
	RowInvalid   = "invalid"
)

// RosterRow is the outcome for a single CSV row. Row numbers are 1-based and
// include the header, so the first data row is 2.
type RosterRow struct {
	Row     int
	Email   string
	Code    string
	Status  string
	Message string
}

// RosterReport summarises one upload.
type RosterReport struct {
	Rows    []RosterRow
	Created int
}

// RosterService manages the voter roster: CSV upload and the invite
// mailshot. Voter codes double as the initial access PIN; only the PIN hash
// is stored, the plaintext reaches the voter by email.
type RosterService struct {
	Store store.Store
	Mail  mailx.Sender
	Clock clock
}

// UploadCSV ingests a roster file for a session. Rows are validated
// independently; valid rows commit in a single transaction and the report
// carries a per-row status either way.
func (s *RosterService) UploadCSV(ctx context.Context, organizationID, sessionID string, r io.Reader) (RosterReport, error) {
	log := slogx.FromContext(ctx)

	// 1. The session must exist, belong to the caller and not have started.
	sess, err := s.ownedSession(ctx, organizationID, sessionID)
	if err != nil {
		return RosterReport{}, err
	}
	if !dateOnly(s.Clock.now()).Before(dateOnly(sess.VotingDate)) {
		return RosterReport{}, ErrSessionStarted
	}

	// 2. Read the header and locate the email column.
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return RosterReport{}, ErrEmptyRoster
		}
		return RosterReport{}, fmt.Errorf("read roster header: %w", err)
	}
	emailCol := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), "email") {
			emailCol = i
			break
		}
	}
	if emailCol < 0 {
		return RosterReport{}, ErrMissingColumn
	}

	// 3. Validate each row. Duplicates are checked against the existing
	// roster and against earlier rows of this same file.
	var (
		report  RosterReport
		pending []domain.Voter
		inFile  = map[string]struct{}{}
		rowNum  = 1
	)
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return RosterReport{}, fmt.Errorf("read roster row: %w", err)
		}
		rowNum++

		email := ""
		if emailCol < len(record) {
			email = strings.ToLower(strings.TrimSpace(record[emailCol]))
		}
		row := RosterRow{Row: rowNum, Email: email}

		switch {
		case email == "":
			row.Status, row.Message = RowInvalid, "email is required"
		case !emailPattern.MatchString(email):
			row.Status, row.Message = RowInvalid, "email format is invalid"
		default:
			if _, dup := inFile[email]; dup {
				row.Status, row.Message = RowDuplicate, "email repeated in file"
				break
			}
			exists, err := s.Store.Voters().ExistsVoterEmailInSession(ctx, email, sess.ID)
			if err != nil {
				log.Error("failed to check roster email", slog.Any("error", err))
				return RosterReport{}, err
			}
			if exists {
				row.Status, row.Message = RowDuplicate, "email already registered for this session"
				break
			}

			voter, err := s.newVoter(email, sess.ID)
			if err != nil {
				log.Error("failed to prepare voter", slog.Any("error", err))
				return RosterReport{}, err
			}
			inFile[email] = struct{}{}
			pending = append(pending, voter)
			row.Status = RowCreated
			row.Code = voter.Code
		}
		report.Rows = append(report.Rows, row)
	}
	if rowNum == 1 {
		return RosterReport{}, ErrEmptyRoster
	}

	// 4. Commit all valid rows at once.
	if len(pending) > 0 {
		err = s.Store.WithTx(ctx, func(tx store.Tx) error {
			for _, v := range pending {
				if err := tx.Voters().CreateVoter(ctx, v); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			log.Error("failed to store roster", slog.Any("error", err))
			return RosterReport{}, err
		}
	}
	report.Created = len(pending)

	log.Info("roster uploaded",
		slog.String("session_id", sess.ID),
		slog.Int("rows", len(report.Rows)),
		slog.Int("created", report.Created),
	)
	return report, nil
}

// newVoter mints a voter with a fresh VTR code. The code doubles as the
// initial access PIN, so the PIN hash is derived from it.
func (s *RosterService) newVoter(email, sessionID string) (domain.Voter, error) {
	code := newVoterCode()
	pinHash, err := cryptox.HashPassword(code)
	if err != nil {
		return domain.Voter{}, err
	}
	now := s.Clock.now()
	return domain.Voter{
		ID:        idx.New().String(),
		Code:      code,
		Email:     email,
		SessionID: sessionID,
		PinHash:   pinHash,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// newVoterCode returns a short human-typable code such as "VTR-7F3A9".
func newVoterCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "VTR-" + raw[:5]
}

// SendInvites emails login instructions to every voter in the session who
// has not voted yet. Delivery failures are counted, not fatal.
func (s *RosterService) SendInvites(ctx context.Context, organizationID, sessionID string) (sent, failed int, err error) {
	log := slogx.FromContext(ctx)

	sess, err := s.ownedSession(ctx, organizationID, sessionID)
	if err != nil {
		return 0, 0, err
	}

	voters, err := s.Store.Voters().ListPendingVotersBySession(ctx, sess.ID)
	if err != nil {
		return 0, 0, err
	}

	for _, v := range voters {
		body := fmt.Sprintf(
			"You are registered to vote in %q on %s between %s and %s (UTC).\n\n"+
				"Your voter code is %s. It is also your initial access PIN.",
			sess.Title, sess.VotingDate.Format("2006-01-02"),
			sess.StartTime, sess.EndTime, v.Code,
		)
		if err := s.Mail.Send(ctx, v.Email, "Your voting invitation", body); err != nil {
			log.Warn("failed to send invite",
				slog.String("voter_id", v.ID),
				slog.Any("error", err),
			)
			failed++
			continue
		}
		sent++
	}

	log.Info("invites sent",
		slog.String("session_id", sess.ID),
		slog.Int("sent", sent),
		slog.Int("failed", failed),
	)
	return sent, failed, nil
}

// ListVoters returns the session's roster for its owning organization.
func (s *RosterService) ListVoters(ctx context.Context, organizationID, sessionID string) ([]domain.Voter, error) {
	sess, err := s.ownedSession(ctx, organizationID, sessionID)
	if err != nil {
		return nil, err
	}
	return s.Store.Voters().ListVotersBySession(ctx, sess.ID)
}

func (s *RosterService) ownedSession(ctx context.Context, organizationID, sessionID string) (domain.Session, error) {
	sess, err := s.Store.Sessions().GetSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, ErrSessionNotFound
		}
		return domain.Session{}, err
	}
	if sess.OrganizationID != organizationID {
		return domain.Session{}, ErrNotSessionOwner
	}
	return sess, nil
}
