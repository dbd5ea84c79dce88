package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/BruksfildServices01/barber-booking/internal/reservation"
)

const defaultTimeout = 10 * time.Second

// Profile is the book.toml file.
//
//	base_url  = "http://localhost:8080"
//	tenant_id = 1
//	branch_id = 1
//	timeout   = "10s"
//
//	[guest]
//	name  = "Ana Souza"
//	phone = "+55 11 99999-0001"
type Profile struct {
	BaseURL  string `toml:"base_url"`
	TenantID uint   `toml:"tenant_id"`
	BranchID uint   `toml:"branch_id"`
	Timeout  string `toml:"timeout"`

	// Staff credentials; optional.
	Email    string `toml:"email"`
	Password string `toml:"password"`

	CustomerID uint       `toml:"customer_id"`
	Guest      GuestEntry `toml:"guest"`

	timeout time.Duration
}

type GuestEntry struct {
	Name  string `toml:"name"`
	Phone string `toml:"phone"`
	Email string `toml:"email"`
}

func loadProfile(path string) (*Profile, error) {
	var p Profile
	md, err := toml.DecodeFile(path, &p)
	if err != nil {
		return nil, fmt.Errorf("perfil %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("perfil %s: chave desconhecida %q", path, undecoded[0].String())
	}
	if err := p.normalize(); err != nil {
		return nil, fmt.Errorf("perfil %s: %w", path, err)
	}
	return &p, nil
}

func (p *Profile) normalize() error {
	p.BaseURL = strings.TrimRight(strings.TrimSpace(p.BaseURL), "/")
	if p.BaseURL == "" {
		return errors.New("base_url obrigatório")
	}
	if p.TenantID == 0 || p.BranchID == 0 {
		return errors.New("tenant_id e branch_id obrigatórios")
	}

	p.timeout = defaultTimeout
	if p.Timeout != "" {
		d, err := time.ParseDuration(p.Timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("timeout inválido: %q", p.Timeout)
		}
		p.timeout = d
	}

	if (p.Email == "") != (p.Password == "") {
		return errors.New("email e password devem vir juntos")
	}
	if p.CustomerID != 0 && p.Guest.Name != "" {
		return errors.New("use customer_id ou [guest], não ambos")
	}
	return nil
}

// Identity returns who books: the registered customer when customer_id is
// set, the guest entry otherwise.
func (p *Profile) Identity() reservation.Identity {
	if p.CustomerID != 0 {
		return reservation.Member{CustomerID: p.CustomerID}
	}
	return reservation.Guest{Name: p.Guest.Name, Phone: p.Guest.Phone, Email: p.Guest.Email}
}
