package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diceydecisions/dicey/internal/dicey/domain"
	"github.com/diceydecisions/dicey/internal/dicey/store"
	"github.com/diceydecisions/dicey/pkg/cryptox"
	"github.com/diceydecisions/dicey/pkg/idx"
	"github.com/diceydecisions/dicey/pkg/jwtx"
	"github.com/diceydecisions/dicey/pkg/mailx"
	"github.com/diceydecisions/dicey/pkg/slogx"
)

const minPasswordLength = 8

// AccountService handles registration, email verification and login.
// Registration parks the account in pending_users until the emailed
// verification token is presented; only then does a real user row exist.
type AccountService struct {
	Store store.Store

	AccessSigner       *jwtx.HS256
	RefreshSigner      *jwtx.HS256
	VerificationSigner *jwtx.HS256

	Mailer mailx.Mailer

	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	VerificationTTL time.Duration
	PendingTTL      time.Duration

	// VerifyBaseURL is the frontend URL the verification link points at; the
	// token is appended as a query parameter.
	VerifyBaseURL string
}

// Register starts a registration. The account is held in pending_users and a
// verification token is mailed out. Re-registering an unverified email
// refreshes the pending row and resends the mail rather than erroring.
func (s *AccountService) Register(ctx context.Context, name, email, password string) error {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if name == "" || !validEmail(email) {
		return ErrInvalidInput
	}
	if len(password) < minPasswordLength {
		return ErrInvalidInput
	}

	if _, err := s.Store.Users().GetUserByEmail(ctx, email); err == nil {
		return ErrEmailInUse
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	pending := domain.PendingUser{
		ID:           idx.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		ExpiresAt:    now.Add(s.PendingTTL),
		CreatedAt:    now,
	}
	if err := s.Store.PendingUsers().UpsertPendingUser(ctx, pending); err != nil {
		return err
	}

	return s.sendVerification(ctx, name, email)
}

// ResendVerification re-issues the verification mail for an unverified
// registration.
func (s *AccountService) ResendVerification(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	if _, err := s.Store.Users().GetUserByEmail(ctx, email); err == nil {
		return ErrAlreadyVerified
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	pending, err := s.Store.PendingUsers().GetPendingUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if time.Now().UTC().After(pending.ExpiresAt) {
		return store.ErrNotFound
	}

	return s.sendVerification(ctx, pending.Name, email)
}

// Verify promotes a pending registration into a real user and logs them in.
func (s *AccountService) Verify(ctx context.Context, token string) (domain.User, domain.TokenPair, error) {
	claims, err := s.VerificationSigner.Verify(token)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, ErrInvalidVerification
	}
	email := normalizeEmail(claims.Email)

	pending, err := s.Store.PendingUsers().GetPendingUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Token is valid but there is nothing to promote; the link was
			// most likely already used. A double-clicked link still logs
			// the user in.
			return s.loginVerified(ctx, email)
		}
		return domain.User{}, domain.TokenPair{}, err
	}

	now := time.Now().UTC()
	if now.After(pending.ExpiresAt) {
		return domain.User{}, domain.TokenPair{}, ErrInvalidVerification
	}

	user := domain.User{
		ID:           idx.New().String(),
		Name:         pending.Name,
		Email:        pending.Email,
		PasswordHash: pending.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			return err
		}
		return tx.PendingUsers().DeletePendingUserByEmail(ctx, email)
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Lost the promotion race to a concurrent verify; the account
			// exists either way.
			return s.loginVerified(ctx, email)
		}
		return domain.User{}, domain.TokenPair{}, err
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}
	return user, pair, nil
}

// loginVerified issues a token pair for an already promoted account, so a
// reused verification link behaves like a login instead of an error.
func (s *AccountService) loginVerified(ctx context.Context, email string) (domain.User, domain.TokenPair, error) {
	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, domain.TokenPair{}, ErrInvalidVerification
		}
		return domain.User{}, domain.TokenPair{}, err
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}
	return user, pair, nil
}

// Login authenticates an email/password pair and issues a token pair.
func (s *AccountService) Login(ctx context.Context, email, password string) (domain.User, domain.TokenPair, error) {
	email = normalizeEmail(email)

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Distinguish "never heard of you" from "your link is in your
			// inbox" so the client can prompt a resend.
			if _, perr := s.Store.PendingUsers().GetPendingUserByEmail(ctx, email); perr == nil {
				return domain.User{}, domain.TokenPair{}, ErrNotVerified
			}
			return domain.User{}, domain.TokenPair{}, ErrInvalidCredentials
		}
		return domain.User{}, domain.TokenPair{}, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		return domain.User{}, domain.TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}
	return user, pair, nil
}

// Refresh exchanges a refresh token for a fresh token pair.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (domain.User, domain.TokenPair, error) {
	claims, err := s.RefreshSigner.Verify(refreshToken)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, ErrInvalidRefreshToken
	}

	user, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, domain.TokenPair{}, ErrInvalidRefreshToken
		}
		return domain.User{}, domain.TokenPair{}, err
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}
	return user, pair, nil
}

// GetUser fetches a user by id.
func (s *AccountService) GetUser(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

func (s *AccountService) issuePair(user domain.User) (domain.TokenPair, error) {
	now := time.Now().UTC()

	access, err := s.AccessSigner.Sign(jwtx.NewAccessClaims(user.ID, user.Email, s.AccessSigner.Issuer(), s.AccessTTL, now))
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, err := s.RefreshSigner.Sign(jwtx.NewRefreshClaims(user.ID, s.RefreshSigner.Issuer(), s.RefreshTTL, now))
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    s.AccessTTL,
	}, nil
}

func (s *AccountService) sendVerification(ctx context.Context, name, email string) error {
	now := time.Now().UTC()
	token, err := s.VerificationSigner.Sign(jwtx.NewVerificationClaims(email, s.VerificationSigner.Issuer(), s.VerificationTTL, now))
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s?token=%s", s.VerifyBaseURL, token)
	body := fmt.Sprintf(
		"Hi %s,\n\nConfirm your email address to finish setting up your account:\n\n%s\n\nThe link expires in %s. If you didn't sign up, ignore this mail.\n",
		name, link, s.VerificationTTL)

	if err := s.Mailer.Send(ctx, email, "Verify your email", body); err != nil {
		slogx.FromContext(ctx).Error("verification mail failed", "email", email, "err", err)
		return err
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}
