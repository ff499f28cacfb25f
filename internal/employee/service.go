// Package employee は従業員レコード管理のドメインロジックを提供する。
package employee

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hitoshi/empdesk/internal/model"
	"github.com/hitoshi/empdesk/internal/repository"
)

// Service は従業員レコードのサービス層。
// 入力の正規化と検証を行い、リポジトリのエラーをAPIErrorに変換する。
type Service struct {
	repo repository.EmployeeRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.EmployeeRepository) *Service {
	return &Service{repo: repo}
}

// List は全従業員をID昇順で返す。
func (s *Service) List(ctx context.Context) ([]*model.Employee, error) {
	employees, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("従業員一覧の取得に失敗しました: %w", err)
	}
	return employees, nil
}

// Create は従業員レコードを追加し、採番されたIDを返す。
// 文字列項目は前後の空白を除去し、全項目が空の場合はエラーを返す。
func (s *Service) Create(ctx context.Context, in model.EmployeeInput) (int64, error) {
	in = normalize(in)
	if in.IsEmpty() {
		return 0, model.NewEmptyRecordError()
	}

	id, err := s.repo.Create(ctx, in)
	if err != nil {
		return 0, fmt.Errorf("従業員レコードの追加に失敗しました: %w", err)
	}
	return id, nil
}

// Update は指定IDの従業員レコードを入力値で全項目上書きする。
// 部分更新ではないため、省略された文字列項目は空文字列、ageはNULLになる。
func (s *Service) Update(ctx context.Context, id int64, in model.EmployeeInput) error {
	if err := s.repo.Update(ctx, id, normalize(in)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewRecordNotFoundError(id)
		}
		return fmt.Errorf("従業員レコードの更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDの従業員レコードを削除する。
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewRecordNotFoundError(id)
		}
		return fmt.Errorf("従業員レコードの削除に失敗しました: %w", err)
	}
	return nil
}

// SeedSamples はテーブルが空の場合のみサンプル従業員を投入し、投入件数を返す。
// 既にレコードがある場合は何もしない。
func (s *Service) SeedSamples(ctx context.Context) (int, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("従業員数の取得に失敗しました: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	for i, sample := range Samples() {
		if _, err := s.repo.Create(ctx, sample); err != nil {
			return i, fmt.Errorf("サンプルデータの投入に失敗しました: %w", err)
		}
	}
	return len(Samples()), nil
}

// Samples は初回起動時に投入するサンプル従業員を返す。
func Samples() []model.EmployeeInput {
	age := func(v int) *int { return &v }
	return []model.EmployeeInput{
		{Name: "Paul Smith", Age: age(32), Email: "paul@example.com", Department: "Engineering"},
		{Name: "Lisa Wong", Age: age(28), Email: "lisa@example.com", Department: "Design"},
		{Name: "Tom Chen", Age: age(45), Email: "tom@example.com", Department: "Management"},
		{Name: "Anna Lee", Age: age(29), Email: "anna@example.com", Department: "Marketing"},
		{Name: "David Kim", Age: age(38), Email: "david@example.com", Department: "Sales"},
	}
}

func normalize(in model.EmployeeInput) model.EmployeeInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Department = strings.TrimSpace(in.Department)
	return in
}
