package utils

import (
	"testing"
)

func TestHashPassword(t *testing.T) {
	password := "Passw0rd!"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if hash == "" {
		t.Error("HashPassword() returned empty string")
	}

	if hash == password {
		t.Error("HashPassword() should not return plaintext password")
	}

	if !IsHashed(hash) {
		t.Errorf("IsHashed(%q) = false, expected true", hash)
	}
}

func TestHashPassword_DifferentHashes(t *testing.T) {
	password := "Passw0rd!"

	hash1, _ := HashPassword(password)
	hash2, _ := HashPassword(password)

	if hash1 == hash2 {
		t.Error("same password should produce different hashes (due to salt)")
	}
}

func TestCheckPassword(t *testing.T) {
	password := "CorrectPassw0rd"
	hash, _ := HashPassword(password)

	tests := []struct {
		name     string
		password string
		expected bool
	}{
		{"correct password", "CorrectPassw0rd", true},
		{"wrong password", "WrongPassw0rd", false},
		{"empty password", "", false},
		{"similar password", "CorrectPassw0rd1", false},
		{"case sensitive", "correctpassw0rd", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckPassword(tt.password, hash)
			if result != tt.expected {
				t.Errorf("CheckPassword(%q) = %v, expected %v", tt.password, result, tt.expected)
			}
		})
	}
}

func TestCheckPassword_SingleCharacterChanges(t *testing.T) {
	password := "CorrectPassw0rd"
	hash, _ := HashPassword(password)

	for i := 0; i < len(password); i++ {
		changed := []byte(password)
		changed[i]++
		if CheckPassword(string(changed), hash) {
			t.Errorf("CheckPassword(%q) = true after changing position %d", changed, i)
		}

		deleted := password[:i] + password[i+1:]
		if CheckPassword(deleted, hash) {
			t.Errorf("CheckPassword(%q) = true after deleting position %d", deleted, i)
		}
	}
}

func TestCheckPassword_InvalidHash(t *testing.T) {
	if CheckPassword("password", "invalid_hash") {
		t.Error("CheckPassword should return false for invalid hash")
	}
}

func TestCheckPassword_EmptyHash(t *testing.T) {
	if CheckPassword("password", "") {
		t.Error("CheckPassword should return false for empty hash")
	}
}

func TestIsHashed(t *testing.T) {
	tests := []struct {
		in       string
		expected bool
	}{
		{"Passw0rd!", false},
		{"", false},
		{"$2a$10$" + "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0", true},
		{"$2b$10$" + "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0", true},
		{"$2a$10$short", false},
	}

	for _, tt := range tests {
		if got := IsHashed(tt.in); got != tt.expected {
			t.Errorf("IsHashed(%q) = %v, expected %v", tt.in, got, tt.expected)
		}
	}
}
