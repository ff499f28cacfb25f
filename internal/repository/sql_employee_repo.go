package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/hitoshi/empdesk/internal/database"
	"github.com/hitoshi/empdesk/internal/model"
)

// SQLEmployeeRepo はSQLite/PostgreSQLを使用した従業員リポジトリ。
type SQLEmployeeRepo struct {
	db *database.DB

	// createMu はプロセス内のCreateを直列化する。
	// ID採番はINSERT文内のサブクエリで行うため、同一文内では読み取りと書き込みが分離しない。
	createMu sync.Mutex
}

// NewSQLEmployeeRepo はSQLEmployeeRepoを生成する。
func NewSQLEmployeeRepo(db *database.DB) *SQLEmployeeRepo {
	return &SQLEmployeeRepo{db: db}
}

// List は全従業員をID昇順で返す。
func (r *SQLEmployeeRepo) List(ctx context.Context) ([]*model.Employee, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, age, email, department FROM employees ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	employees := make([]*model.Employee, 0)
	for rows.Next() {
		e := &model.Employee{}
		var age sql.NullInt64
		if err := rows.Scan(&e.ID, &e.Name, &age, &e.Email, &e.Department); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		if age.Valid {
			v := int(age.Int64)
			e.Age = &v
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}

	return employees, nil
}

// Create は従業員を作成し、採番されたIDを返す。
// IDはINSERT文内でCOALESCE(MAX(id), 0) + 1として算出し、同一文でRETURNINGする。
func (r *SQLEmployeeRepo) Create(ctx context.Context, in model.EmployeeInput) (int64, error) {
	r.createMu.Lock()
	defer r.createMu.Unlock()

	var id int64
	err := r.db.QueryRowContext(ctx,
		r.db.Rebind(`INSERT INTO employees (id, name, age, email, department)
		 VALUES ((SELECT COALESCE(MAX(id), 0) + 1 FROM employees), ?, ?, ?, ?)
		 RETURNING id`),
		in.Name, nullableAge(in.Age), in.Email, in.Department,
	).Scan(&id)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return 0, fmt.Errorf("failed to insert employee: %w", ErrConflict)
		}
		return 0, fmt.Errorf("failed to insert employee: %w", err)
	}

	return id, nil
}

// Update は指定IDの全項目を上書きする。
// 空文字列もそのまま保存する（部分更新ではない）。
func (r *SQLEmployeeRepo) Update(ctx context.Context, id int64, in model.EmployeeInput) error {
	result, err := r.db.ExecContext(ctx,
		r.db.Rebind(`UPDATE employees
		 SET name = ?, age = ?, email = ?, department = ?
		 WHERE id = ?`),
		in.Name, nullableAge(in.Age), in.Email, in.Department, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update employee: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("employee %d: %w", id, ErrNotFound)
	}
	return nil
}

// Delete は指定IDの従業員を削除する。
func (r *SQLEmployeeRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		r.db.Rebind(`DELETE FROM employees WHERE id = ?`),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("employee %d: %w", id, ErrNotFound)
	}
	return nil
}

// Count は従業員数を返す。
func (r *SQLEmployeeRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM employees`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count employees: %w", err)
	}
	return count, nil
}

// nullableAge は未設定の年齢をNULLとして渡すための変換を行う。
func nullableAge(age *int) sql.NullInt64 {
	if age == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*age), Valid: true}
}

// compile-time interface check
var _ EmployeeRepository = (*SQLEmployeeRepo)(nil)
