package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/barber-booking/internal/reservation"
)

func writeProfile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadProfileGuest(t *testing.T) {
	path := writeProfile(t, `
base_url  = "http://localhost:8080/"
tenant_id = 1
branch_id = 2

[guest]
name  = "Ana Souza"
phone = "+55 11 99999-0001"
`)

	p, err := loadProfile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", p.BaseURL)
	assert.Equal(t, uint(2), p.BranchID)
	assert.Equal(t, defaultTimeout, p.timeout)
	assert.Equal(t, reservation.Guest{Name: "Ana Souza", Phone: "+55 11 99999-0001"}, p.Identity())
}

func TestLoadProfileMember(t *testing.T) {
	path := writeProfile(t, `
base_url    = "https://agenda.example.com"
tenant_id   = 1
branch_id   = 1
timeout     = "3s"
email       = "dono@example.com"
password    = "segredo123"
customer_id = 42
`)

	p, err := loadProfile(path)
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, p.timeout)
	assert.Equal(t, reservation.Member{CustomerID: 42}, p.Identity())
}

func TestLoadProfileRejects(t *testing.T) {
	tests := map[string]string{
		"missing base url": `tenant_id = 1
branch_id = 1`,
		"missing branch": `base_url = "http://x"
tenant_id = 1`,
		"bad timeout": `base_url = "http://x"
tenant_id = 1
branch_id = 1
timeout = "soon"`,
		"email without password": `base_url = "http://x"
tenant_id = 1
branch_id = 1
email = "a@b.com"`,
		"member and guest": `base_url = "http://x"
tenant_id = 1
branch_id = 1
customer_id = 3
[guest]
name = "Ana"`,
		"unknown key": `base_url = "http://x"
tenant_id = 1
branch_id = 1
barber = 3`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := loadProfile(writeProfile(t, body))
			assert.Error(t, err)
		})
	}
}
