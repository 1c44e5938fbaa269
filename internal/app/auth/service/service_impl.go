package service

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Miraines/MoonyAndStarry/records-api/internal/adapters/transport/http/dto"
	customErrors "github.com/Miraines/MoonyAndStarry/records-api/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/records-api/internal/domain/auth/model"
	repo "github.com/Miraines/MoonyAndStarry/records-api/internal/domain/auth/repo"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

type Options struct {
	HashingSecret string
	TokenTTL      time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
	// SMS, when set, gets a welcome message for every new user.
	SMS SMSSender
}

type SMSSender interface {
	Send(ctx context.Context, phone, msg string) error
}

const welcomeSMS = "Welcome aboard! Your account is ready."

type authService struct {
	userRepo  repo.UserRepo
	tokenRepo repo.TokenRepo
	secret    []byte
	ttl       time.Duration
	now       func() time.Time
	sms       SMSSender
	v         *validator.Validate
	log       *zap.Logger
}

type Service interface {
	Hash(plain string) (string, error)

	IssueToken(ctx context.Context, phone, password string) (model.Token, error)
	VerifyToken(ctx context.Context, tokenID, phone string) bool
	ExtendToken(ctx context.Context, tokenID string) (model.Token, error)

	CreateUser(context.Context, dto.CreateUserDTO) error
	GetUser(context.Context, dto.GetUserDTO) (model.User, error)
	UpdateUser(context.Context, dto.UpdateUserDTO) error
	DeleteUser(context.Context, dto.DeleteUserDTO) error

	Login(context.Context, dto.LoginDTO) (model.Token, error)
	GetToken(context.Context, dto.TokenIDDTO) (model.Token, error)
	Extend(context.Context, dto.ExtendTokenDTO) (model.Token, error)
	DeleteToken(context.Context, dto.TokenIDDTO) error
}

func New(
	ur repo.UserRepo,
	tr repo.TokenRepo,
	opts Options,
	v *validator.Validate,
	log *zap.Logger,
) Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = time.Hour
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &authService{
		userRepo:  ur,
		tokenRepo: tr,
		secret:    []byte(opts.HashingSecret),
		ttl:       opts.TokenTTL,
		now:       opts.Now,
		sms:       opts.SMS,
		v:         v,
		log:       log,
	}
}

// Hash is HMAC-SHA256 keyed by the hashing secret, hex encoded.
func (a *authService) Hash(plain string) (string, error) {
	if plain == "" {
		return "", fmt.Errorf("hash empty input: %w", customErrors.ErrHashing)
	}
	mac := hmac.New(sha256.New, a.secret)
	mac.Write([]byte(plain))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

func (a *authService) IssueToken(ctx context.Context, phone, password string) (model.Token, error) {
	user, err := a.userRepo.GetUser(ctx, phone)
	switch {
	case customErrors.IsNotFound(err):
		return model.Token{}, fmt.Errorf("IssueToken: user: %w", customErrors.ErrNotFound)
	case err != nil:
		return model.Token{}, internal(err, "IssueToken")
	}

	hashed, err := a.Hash(password)
	if err != nil {
		return model.Token{}, err
	}
	if !hmac.Equal([]byte(hashed), []byte(user.HashedPassword)) {
		return model.Token{}, customErrors.ErrInvalidCredentials
	}

	id, err := randomString(model.TokenIDLength)
	if err != nil {
		return model.Token{}, customErrors.WrapInternal(err, "IssueToken: random id")
	}
	tok := model.Token{
		ID:      id,
		Phone:   user.Phone,
		Expires: a.now().Add(a.ttl).UnixMilli(),
	}
	if err := a.tokenRepo.CreateToken(ctx, tok); err != nil {
		return model.Token{}, internal(err, "IssueToken")
	}
	return tok, nil
}

// VerifyToken never fails loudly: any lookup problem is just "not valid".
func (a *authService) VerifyToken(ctx context.Context, tokenID, phone string) bool {
	if tokenID == "" || phone == "" {
		return false
	}
	tok, err := a.tokenRepo.GetToken(ctx, tokenID)
	if err != nil {
		if !customErrors.IsNotFound(err) && !customErrors.IsInvalidArgument(err) {
			a.log.Warn("token lookup failed", zap.Error(err))
		}
		return false
	}
	return tok.Phone == phone && tok.ActiveAt(a.now())
}

// ExtendToken reads the token right before writing it back. A concurrent
// extend or delete of the same token is a last-writer-wins race.
func (a *authService) ExtendToken(ctx context.Context, tokenID string) (model.Token, error) {
	tok, err := a.tokenRepo.GetToken(ctx, tokenID)
	switch {
	case customErrors.IsNotFound(err):
		return model.Token{}, fmt.Errorf("ExtendToken: %w", customErrors.ErrNotFound)
	case err != nil:
		return model.Token{}, internal(err, "ExtendToken")
	}

	now := a.now()
	if !tok.ActiveAt(now) {
		return model.Token{}, customErrors.ErrTokenExpired
	}
	// expires only ever moves forward, even within the same millisecond or
	// after the TTL was shortened
	next := now.Add(a.ttl).UnixMilli()
	if next <= tok.Expires {
		next = tok.Expires + 1
	}
	tok.Expires = next

	if err := a.tokenRepo.UpdateToken(ctx, tok); err != nil {
		if customErrors.IsNotFound(err) {
			return model.Token{}, fmt.Errorf("ExtendToken: %w", customErrors.ErrNotFound)
		}
		return model.Token{}, internal(err, "ExtendToken")
	}
	return tok, nil
}

func (a *authService) CreateUser(ctx context.Context, d dto.CreateUserDTO) error {
	if err := a.v.Struct(d); err != nil {
		return customErrors.NewInvalidArgument("Missing required fields")
	}

	hashed, err := a.Hash(d.Password)
	if err != nil {
		return err
	}
	user := model.User{
		FirstName:      d.FirstName,
		LastName:       d.LastName,
		Phone:          d.Phone,
		HashedPassword: hashed,
		TOSAgreement:   d.TOSAgreement,
	}
	if err := a.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, customErrors.ErrAlreadyExists) {
			return customErrors.ErrAlreadyExists
		}
		return internal(err, "CreateUser")
	}
	a.log.Info("user created", zap.String("user", maskPhone(d.Phone)))

	// the account exists either way; a failed SMS is only logged
	if a.sms != nil {
		if err := a.sms.Send(ctx, d.Phone, welcomeSMS); err != nil {
			a.log.Warn("welcome sms failed", zap.String("user", maskPhone(d.Phone)), zap.Error(err))
		}
	}
	return nil
}

func (a *authService) GetUser(ctx context.Context, d dto.GetUserDTO) (model.User, error) {
	if err := a.v.Struct(d); err != nil {
		return model.User{}, customErrors.NewInvalidArgument("Missing required field")
	}
	if !a.VerifyToken(ctx, d.Token, d.Phone) {
		return model.User{}, customErrors.ErrForbidden
	}

	user, err := a.userRepo.GetUser(ctx, d.Phone)
	if err != nil {
		return model.User{}, internal(err, "GetUser")
	}
	return user.Public(), nil
}

func (a *authService) UpdateUser(ctx context.Context, d dto.UpdateUserDTO) error {
	if err := a.v.Struct(d); err != nil {
		return customErrors.NewInvalidArgument("Missing required field")
	}
	if !d.HasChanges() {
		return customErrors.NewInvalidArgument("Missing fields to update")
	}
	if !a.VerifyToken(ctx, d.Token, d.Phone) {
		return customErrors.ErrForbidden
	}

	user, err := a.userRepo.GetUser(ctx, d.Phone)
	if err != nil {
		return internal(err, "UpdateUser")
	}
	if d.FirstName != "" {
		user.FirstName = d.FirstName
	}
	if d.LastName != "" {
		user.LastName = d.LastName
	}
	if d.Password != "" {
		if user.HashedPassword, err = a.Hash(d.Password); err != nil {
			return err
		}
	}

	if err := a.userRepo.UpdateUser(ctx, user); err != nil {
		return internal(err, "UpdateUser")
	}
	return nil
}

// DeleteUser leaves the user's tokens in place; they expire on their own.
func (a *authService) DeleteUser(ctx context.Context, d dto.DeleteUserDTO) error {
	if err := a.v.Struct(d); err != nil {
		return customErrors.NewInvalidArgument("Missing required field")
	}
	if !a.VerifyToken(ctx, d.Token, d.Phone) {
		return customErrors.ErrForbidden
	}

	if err := a.userRepo.DeleteUser(ctx, d.Phone); err != nil {
		return internal(err, "DeleteUser")
	}
	a.log.Info("user deleted", zap.String("user", maskPhone(d.Phone)))
	return nil
}

// Login folds "no such user" into ErrInvalidCredentials so callers cannot tell
// which check failed.
func (a *authService) Login(ctx context.Context, d dto.LoginDTO) (model.Token, error) {
	if err := a.v.Struct(d); err != nil {
		return model.Token{}, customErrors.NewInvalidArgument("Missing required fields")
	}

	tok, err := a.IssueToken(ctx, d.Phone, d.Password)
	switch {
	case customErrors.IsNotFound(err), customErrors.IsInvalidCredentials(err):
		return model.Token{}, customErrors.ErrInvalidCredentials
	case err != nil:
		return model.Token{}, err
	}
	return tok, nil
}

func (a *authService) GetToken(ctx context.Context, d dto.TokenIDDTO) (model.Token, error) {
	if err := a.v.Struct(d); err != nil {
		return model.Token{}, customErrors.NewInvalidArgument("Missing required field")
	}
	tok, err := a.tokenRepo.GetToken(ctx, d.ID)
	if err != nil {
		return model.Token{}, internal(err, "GetToken")
	}
	return tok, nil
}

func (a *authService) Extend(ctx context.Context, d dto.ExtendTokenDTO) (model.Token, error) {
	if err := a.v.Struct(d); err != nil {
		return model.Token{}, customErrors.NewInvalidArgument("Missing required field(s) or field(s) are invalid")
	}
	return a.ExtendToken(ctx, d.ID)
}

func (a *authService) DeleteToken(ctx context.Context, d dto.TokenIDDTO) error {
	if err := a.v.Struct(d); err != nil {
		return customErrors.NewInvalidArgument("Missing required field")
	}
	if err := a.tokenRepo.DeleteToken(ctx, d.ID); err != nil {
		return internal(err, "DeleteToken")
	}
	return nil
}

// internal passes domain sentinels through and hides everything else behind
// ErrInternal.
func internal(err error, op string) error {
	switch {
	case customErrors.IsNotFound(err),
		customErrors.IsAlreadyExists(err),
		customErrors.IsInvalidArgument(err),
		customErrors.IsInternal(err):
		return fmt.Errorf("%s: %w", op, err)
	}
	return customErrors.WrapInternal(err, op)
}

// randomString draws from tokenAlphabet without modulo bias: bytes at or above
// the largest multiple of the alphabet size are discarded.
func randomString(n int) (string, error) {
	return randomFrom(rand.Reader, n)
}

func randomFrom(r io.Reader, n int) (string, error) {
	limit := 256 - 256%len(tokenAlphabet)
	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
		for _, c := range buf {
			if int(c) >= limit {
				continue
			}
			out = append(out, tokenAlphabet[int(c)%len(tokenAlphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

// maskPhone keeps the last two digits, enough to correlate log lines.
func maskPhone(phone string) string {
	if len(phone) <= 2 {
		return "**"
	}
	return "********" + phone[len(phone)-2:]
}
