package account_test

import (
	"strings"
	"testing"

	"parky/internal/domain/account"
)

// TestAccount_Validate tests validation of Account.
func TestAccount_Validate(t *testing.T) {
	tests := []struct {
		name    string
		account account.Account
		wantErr error
	}{
		{name: "valid attendant", account: account.Account{Email: "budi@example.com", Role: account.RoleAttendant}},
		{name: "valid student", account: account.Account{Email: "siti@campus.ac.id", Role: account.RoleStudent}},
		{name: "empty email", account: account.Account{Role: account.RoleStudent}, wantErr: account.ErrEmptyEmail},
		{name: "no at sign", account: account.Account{Email: "siti", Role: account.RoleStudent}, wantErr: account.ErrInvalidEmail},
		{name: "long email", account: account.Account{Email: strings.Repeat("a", 250) + "@x.id", Role: account.RoleStudent}, wantErr: account.ErrEmailTooLong},
		{name: "display name form", account: account.Account{Email: "Budi <budi@example.com>", Role: account.RoleAttendant}, wantErr: account.ErrInvalidEmail},
		{name: "unknown role", account: account.Account{Email: "a@b.c", Role: "guard"}, wantErr: account.ErrInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.account.Validate(); err != tt.wantErr {
				t.Errorf("Account.Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestAccount_Password tests hashing and verification.
func TestAccount_Password(t *testing.T) {
	a := account.Account{}
	if err := a.SetPassword(""); err != account.ErrEmptyPassword {
		t.Errorf("SetPassword(\"\") error = %v, want ErrEmptyPassword", err)
	}
	if err := a.SetPassword("short"); err != account.ErrPasswordTooShort {
		t.Errorf("SetPassword(short) error = %v, want ErrPasswordTooShort", err)
	}
	if err := a.SetPassword("correct-horse"); err != nil {
		t.Fatalf("SetPassword() error = %v", err)
	}
	if err := a.CheckPassword("correct-horse"); err != nil {
		t.Errorf("CheckPassword(correct) error = %v", err)
	}
	if err := a.CheckPassword("wrong-horse"); err != account.ErrWrongPassword {
		t.Errorf("CheckPassword(wrong) error = %v, want ErrWrongPassword", err)
	}
}

func TestGeneratePassword(t *testing.T) {
	p1, err := account.GeneratePassword()
	if err != nil {
		t.Fatalf("GeneratePassword() error = %v", err)
	}
	p2, _ := account.GeneratePassword()
	if len(p1) != account.GeneratedPasswordLength {
		t.Errorf("len = %d, want %d", len(p1), account.GeneratedPasswordLength)
	}
	if p1 == p2 {
		t.Errorf("two generated passwords are equal: %q", p1)
	}
	if i := strings.IndexAny(p1+p2, "0O1lI"); i >= 0 {
		t.Errorf("generated password uses ambiguous character %q", (p1 + p2)[i])
	}
	var a account.Account
	if err := a.SetPassword(p1); err != nil {
		t.Errorf("generated password rejected: %v", err)
	}
}
