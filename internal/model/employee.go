package model

// Employee は従業員レコードを表す。
// Ageは未設定（NULL）を許容する。
type Employee struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Age        *int   `json:"age"`
	Email      string `json:"email"`
	Department string `json:"department"`
}

// EmployeeInput は従業員レコードの作成・更新時の入力値を表す。
type EmployeeInput struct {
	Name       string
	Age        *int
	Email      string
	Department string
}

// IsEmpty は全フィールドが空（Ageは未設定）かを返す。
func (in EmployeeInput) IsEmpty() bool {
	return in.Name == "" && in.Email == "" && in.Department == "" && in.Age == nil
}
