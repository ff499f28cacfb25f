// Package credential はパスワードのハッシュ化と検証を提供する。
// ハッシュはpasslibのpbkdf2_sha256と同じ形式
// （$pbkdf2-sha256$<rounds>$<salt>$<checksum>）で保存する。
package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultRounds はpasslibのpbkdf2_sha256のデフォルト反復回数。
	DefaultRounds = 29000

	saltSize = 16
	keySize  = 32
	ident    = "pbkdf2-sha256"
)

// ab64 はpasslibの"adapted base64"。'+'の代わりに'.'を使い、パディングを付けない。
var ab64 = base64.NewEncoding(
	"ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789./",
).WithPadding(base64.NoPadding)

// Hasher はPBKDF2-SHA256によるパスワードハッシャー。
type Hasher struct {
	rounds int
}

// NewHasher は新しいハッシュの生成に使う反復回数を指定してHasherを生成する。
// roundsが0以下の場合はDefaultRoundsを使用する。
func NewHasher(rounds int) *Hasher {
	if rounds <= 0 {
		rounds = DefaultRounds
	}
	return &Hasher{rounds: rounds}
}

// Hash はランダムなソルトを生成してパスワードをハッシュ化する。
// 同じパスワードでも呼び出しごとに異なる文字列を返す。
func (h *Hasher) Hash(plain string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(plain), salt, h.rounds, keySize, sha256.New)

	return fmt.Sprintf("$%s$%d$%s$%s", ident, h.rounds, ab64.EncodeToString(salt), ab64.EncodeToString(key)), nil
}

// Verify はパスワードがハッシュと一致するかを返す。
// 反復回数はハッシュ文字列から読み取るため、設定変更前に作成したハッシュも検証できる。
// 形式が不正なハッシュに対してはfalseを返す。
func (h *Hasher) Verify(plain, hashed string) bool {
	rounds, salt, want, ok := parse(hashed)
	if !ok {
		return false
	}

	got := pbkdf2.Key([]byte(plain), salt, rounds, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}

func parse(hashed string) (rounds int, salt, key []byte, ok bool) {
	// "$pbkdf2-sha256$29000$salt$checksum" -> ["", ident, rounds, salt, checksum]
	parts := strings.Split(hashed, "$")
	if len(parts) != 5 || parts[0] != "" || parts[1] != ident {
		return 0, nil, nil, false
	}

	rounds, err := strconv.Atoi(parts[2])
	if err != nil || rounds <= 0 {
		return 0, nil, nil, false
	}

	salt, err = ab64.DecodeString(parts[3])
	if err != nil {
		return 0, nil, nil, false
	}

	key, err = ab64.DecodeString(parts[4])
	if err != nil || len(key) == 0 {
		return 0, nil, nil, false
	}

	return rounds, salt, key, true
}
