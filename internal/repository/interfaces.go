// Package repository はデータ永続化のインターフェースとSQL実装を提供する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/empdesk/internal/model"
)

var (
	// ErrNotFound は対象の行が存在しないことを表す。
	ErrNotFound = errors.New("not found")
	// ErrConflict は一意制約違反を表す。
	ErrConflict = errors.New("unique constraint violation")
)

// EmployeeRepository は従業員データの永続化インターフェース。
type EmployeeRepository interface {
	// List は全従業員をID昇順で返す。
	List(ctx context.Context) ([]*model.Employee, error)

	// Create は従業員を作成し、採番されたIDを返す。
	// IDは作成時点の最大ID+1（空の場合は1）となる。
	Create(ctx context.Context, in model.EmployeeInput) (int64, error)

	// Update は指定IDの全項目を上書きする。該当行がない場合はErrNotFoundを返す。
	Update(ctx context.Context, id int64, in model.EmployeeInput) error

	// Delete は指定IDの従業員を削除する。該当行がない場合はErrNotFoundを返す。
	Delete(ctx context.Context, id int64) error

	// Count は従業員数を返す。
	Count(ctx context.Context) (int, error)
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByUsername はユーザー名で完全一致検索する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// FindByEmail はメールアドレスで完全一致検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成し、採番されたIDをuser.IDに設定する。
	// ユーザー名またはメールアドレスが重複する場合はErrConflictを返す。
	Create(ctx context.Context, user *model.User) error

	// Count はユーザー数を返す。
	Count(ctx context.Context) (int, error)
}
