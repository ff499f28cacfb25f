// Package account はユーザー登録、ログイン・ログアウト、管理者プロビジョニングを提供する。
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/empdesk/internal/model"
	"github.com/hitoshi/empdesk/internal/repository"
)

// ログイン試行の結果ラベル（メトリクス用）
const (
	LoginResultSuccess            = "success"
	LoginResultInvalidInput       = "invalid_input"
	LoginResultInvalidCredentials = "invalid_credentials"
	LoginResultError              = "error"
)

// PasswordHasher はパスワードのハッシュ化と検証のインターフェース。
// *credential.Hasher が満たす。
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hashed string) bool
}

// SessionStore はセッションの発行・解決・破棄のインターフェース。
// *session.Registry が満たす。
type SessionStore interface {
	Create(userID int64) (string, error)
	Resolve(token string) (int64, bool)
	Revoke(token string)
}

// LoginRecorder はログイン試行の結果を記録するインターフェース。
// *metrics.Collector が満たす。
type LoginRecorder interface {
	RecordLoginAttempt(result string)
}

type noopRecorder struct{}

func (noopRecorder) RecordLoginAttempt(string) {}

// RegisterInput はユーザー登録の入力値。
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// LoginResult はログイン成功時に返す発行済みセッションとユーザー。
type LoginResult struct {
	SessionToken string
	User         *model.User
}

// Service はアカウント管理のサービス層。
type Service struct {
	users    repository.UserRepository
	hasher   PasswordHasher
	sessions SessionStore
	recorder LoginRecorder
	now      func() time.Time
}

// NewService はServiceを生成する。recorderがnilの場合はログイン試行を記録しない。
func NewService(
	users repository.UserRepository,
	hasher PasswordHasher,
	sessions SessionStore,
	recorder LoginRecorder,
) *Service {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Service{
		users:    users,
		hasher:   hasher,
		sessions: sessions,
		recorder: recorder,
		now:      time.Now,
	}
}

// Register は新しいユーザーを登録し、採番されたユーザーIDを返す。
// 入力値は前後の空白を除去してから検証する（パスワードも含む）。
func (s *Service) Register(ctx context.Context, in RegisterInput) (int64, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	password := strings.TrimSpace(in.Password)

	if username == "" || email == "" || password == "" {
		return 0, model.NewInvalidInputError("Username, email, and password are required")
	}

	user, err := s.createUser(ctx, username, email, password)
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

// createUser は重複チェックを行ったうえでユーザーを作成する。
// チェック後に別リクエストが同じ値を登録した場合も、一意制約違反を同じエラーに変換する。
func (s *Service) createUser(ctx context.Context, username, email, password string) (*model.User, error) {
	existing, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewUsernameTakenError()
	}

	existing, err = s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewEmailTakenError()
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	user := &model.User{
		Username:       username,
		Email:          email,
		HashedPassword: hashed,
		CreatedAt:      s.now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, s.conflictError(ctx, username)
		}
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	return user, nil
}

// conflictError は一意制約違反の原因がユーザー名かメールアドレスかを判定する。
func (s *Service) conflictError(ctx context.Context, username string) error {
	existing, err := s.users.FindByUsername(ctx, username)
	if err == nil && existing != nil {
		return model.NewUsernameTakenError()
	}
	return model.NewEmailTakenError()
}

// Login はユーザー名とパスワードを検証し、新しいセッションを発行する。
// ユーザーが存在しない場合とパスワードが一致しない場合は同じエラーを返す。
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)

	if username == "" || password == "" {
		s.recorder.RecordLoginAttempt(LoginResultInvalidInput)
		return nil, model.NewInvalidInputError("Username and password are required")
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		s.recorder.RecordLoginAttempt(LoginResultError)
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if user == nil || !s.hasher.Verify(password, user.HashedPassword) {
		s.recorder.RecordLoginAttempt(LoginResultInvalidCredentials)
		return nil, model.NewInvalidCredentialsError()
	}

	token, err := s.sessions.Create(user.ID)
	if err != nil {
		s.recorder.RecordLoginAttempt(LoginResultError)
		return nil, fmt.Errorf("セッションの発行に失敗しました: %w", err)
	}

	s.recorder.RecordLoginAttempt(LoginResultSuccess)
	return &LoginResult{SessionToken: token, User: user}, nil
}

// Logout はセッションを破棄する。未知のトークンでもエラーにしない。
func (s *Service) Logout(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return model.NewInvalidInputError("Session token is required")
	}
	s.sessions.Revoke(token)
	return nil
}

// CurrentUser はセッショントークンに対応するユーザーを返す。
func (s *Service) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, model.NewUnauthorizedError("Session token is required")
	}

	userID, ok := s.sessions.Resolve(token)
	if !ok {
		return nil, model.NewUnauthorizedError("Invalid or expired session")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// ProvisionAdmin はユーザーが1人も存在しない場合に限り、管理者ユーザーを作成する。
// 作成した場合はtrueを返す。既にユーザーが存在する場合は何もしない。
func (s *Service) ProvisionAdmin(ctx context.Context, username, email, password string) (bool, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)

	if username == "" || email == "" || password == "" {
		return false, model.NewInvalidInputError("Username, email, and password are required")
	}

	count, err := s.users.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("ユーザー数の取得に失敗しました: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	user, err := s.createUser(ctx, username, email, password)
	if err != nil {
		return false, err
	}

	slog.Info("管理者ユーザーを作成しました",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return true, nil
}
