package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BruksfildServices01/barber-booking/internal/appstate"
	"github.com/BruksfildServices01/barber-booking/internal/client"
	"github.com/BruksfildServices01/barber-booking/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-booking/internal/reservation"
)

func main() {
	configPath := flag.String("config", "book.toml", "perfil TOML")
	barberID := flag.Uint("barber", 0, "id do barbeiro")
	serviceID := flag.Uint("service", 0, "id do serviço")
	date := flag.String("date", time.Now().Format(schedule.DateLayout), "data (YYYY-MM-DD)")
	clock := flag.String("time", "", "horário (HH:MM); vazio lista os horários livres")
	notes := flag.String("notes", "", "observações")
	yes := flag.Bool("yes", false, "confirma sem perguntar")
	flag.Parse()

	if *barberID == 0 || *serviceID == 0 {
		flag.Usage()
		os.Exit(2)
	}

	p, err := loadProfile(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	state := appstate.New()
	api := client.New(p.BaseURL, p.timeout, state)

	if p.Email != "" {
		if _, err := api.Login(ctx, p.Email, p.Password); err != nil {
			log.Fatalf("login: %v", err)
		}
		prof, _ := state.Current()
		log.Printf("autenticado como %s (%s)", prof.Name, prof.Role)
		defer api.Logout()
	}

	svc, err := api.Service(ctx, p.TenantID, uint(*serviceID))
	if err != nil {
		log.Fatalf("serviço %d: %v", *serviceID, err)
	}
	duration := time.Duration(svc.DurationMin) * time.Minute

	sess := reservation.New(api, reservation.Config{TenantID: p.TenantID, BranchID: p.BranchID})

	if err := sess.Refresh(ctx, uint(*barberID), *date); err != nil {
		log.Fatalf("agenda: %v", err)
	}
	view, _ := sess.View()

	if *clock == "" {
		printFreeSlots(view, svc.Name, duration)
		return
	}

	start, err := slotStart(*date, *clock, view.Location)
	if err != nil {
		log.Fatal(err)
	}

	if err := sess.Select(start, svc.ID, duration, p.Identity()); err != nil {
		fail(err)
	}

	// From here on an interrupt abandons the session instead of cutting
	// requests short, so a lock that is granted late still gets released.
	abandoned := make(chan (<-chan struct{}), 1)
	go func() {
		<-ctx.Done()
		abandoned <- sess.Abandon()
	}()
	interrupted := func() {
		<-<-abandoned
		fmt.Println("reserva liberada")
		os.Exit(130)
	}
	work := context.WithoutCancel(ctx)

	if err := sess.Lock(work); err != nil {
		if interruptedBy(ctx, err) {
			interrupted()
		}
		fail(err)
	}

	held, _ := sess.HeldLock()
	fmt.Printf("%s com barbeiro %d às %s reservado até %s\n",
		svc.Name, *barberID, start.In(view.Location).Format(schedule.ClockLayout),
		held.ExpiresAt.In(view.Location).Format("15:04:05"))

	if !*yes && !confirm(ctx) {
		if ctx.Err() != nil {
			interrupted()
		}
		if err := sess.Cancel(work); err != nil {
			log.Printf("liberar reserva: %v", err)
		}
		fmt.Println("reserva liberada")
		return
	}

	if err := sess.Commit(work, *notes); err != nil {
		if interruptedBy(ctx, err) {
			interrupted()
		}
		fail(err)
	}

	ap, _ := sess.Appointment()
	fmt.Printf("agendamento #%d confirmado: %s, %s\n",
		ap.ID, ap.StartTime.In(view.Location).Format("02/01/2006 15:04"), ap.Status)
	if ap.PaymentURL != "" {
		fmt.Printf("pagamento: %s\n", ap.PaymentURL)
	}
}

func slotStart(date, clock string, loc *time.Location) (time.Time, error) {
	day, err := schedule.ParseDate(date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("data inválida: %q", date)
	}
	start, err := schedule.ClockOn(day, clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("horário inválido: %q", clock)
	}
	return start, nil
}

func printFreeSlots(view reservation.DayView, service string, d time.Duration) {
	if !view.Open.Open {
		fmt.Printf("%s: fechado", view.Date)
		if view.Open.Reason != "" {
			fmt.Printf(" (%s)", view.Open.Reason)
		}
		fmt.Println()
		return
	}

	slots := view.FreeSlots(d, time.Now())
	fmt.Printf("%s, %s: %d horários livres\n", view.Date, service, len(slots))
	for _, s := range slots {
		fmt.Printf("  %s\n", s.Start.In(view.Location).Format(schedule.ClockLayout))
	}
}

// confirm asks on stdin. It returns false on "no" and when ctx is done.
func confirm(ctx context.Context) bool {
	answer := make(chan string, 1)
	go func() {
		fmt.Print("confirmar? [s/N] ")
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		answer <- strings.ToLower(strings.TrimSpace(line))
	}()

	select {
	case <-ctx.Done():
		fmt.Println()
		return false
	case a := <-answer:
		return a == "s" || a == "sim"
	}
}

// interruptedBy reports whether err should be left to the interrupt path,
// which waits for the abandoned lock to be released before exiting.
func interruptedBy(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, reservation.ErrAbandoned)
}

func fail(err error) {
	switch reservation.KindOf(err) {
	case reservation.KindConflict:
		log.Fatalf("horário indisponível: %v", err)
	case reservation.KindExpired:
		log.Fatalf("a reserva expirou, escolha o horário de novo: %v", err)
	case reservation.KindTransport:
		log.Fatalf("falha de comunicação com o servidor: %v", err)
	}
	log.Fatal(err)
}
