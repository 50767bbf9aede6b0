// Package seed loads demo fixtures from YAML into a store so an in-memory
// server has data to show.
package seed

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/Nixie-Tech-LLC/attendance/internal/db"
	"github.com/Nixie-Tech-LLC/attendance/internal/model"
	"github.com/Nixie-Tech-LLC/attendance/internal/timefmt"
)

type User struct {
	Email    string  `yaml:"email"`
	Password string  `yaml:"password"`
	Name     *string `yaml:"name"`
}

type Participant struct {
	FullName string  `yaml:"full_name"`
	Email    *string `yaml:"email"`
	Phone    *string `yaml:"phone"`
}

type Program struct {
	Name            string  `yaml:"name"`
	Description     *string `yaml:"description"`
	Location        *string `yaml:"location"`
	StartTime       string  `yaml:"start_time"`
	DurationMinutes int     `yaml:"duration_minutes"`
	Recurrence      string  `yaml:"recurrence"`
	FirstSession    string  `yaml:"first_session"`
}

type Yatra struct {
	Name          string   `yaml:"name"`
	Destination   string   `yaml:"destination"`
	StartDate     string   `yaml:"start_date"`
	EndDate       string   `yaml:"end_date"`
	DepartureTime *string  `yaml:"departure_time"`
	Capacity      int      `yaml:"capacity"`
	Registrations []string `yaml:"registrations"`
}

// Attendance references its participant and program by name.
type Attendance struct {
	Participant string  `yaml:"participant"`
	Program     string  `yaml:"program"`
	Date        string  `yaml:"date"`
	CheckIn     string  `yaml:"check_in"`
	CheckOut    *string `yaml:"check_out"`
	Note        *string `yaml:"note"`
}

// Fixture is the document layout of a seed file. The first user owns every
// other row.
type Fixture struct {
	Users        []User        `yaml:"users"`
	Participants []Participant `yaml:"participants"`
	Programs     []Program     `yaml:"programs"`
	Yatras       []Yatra       `yaml:"yatras"`
	Attendance   []Attendance  `yaml:"attendance"`
}

// Summary counts the rows Apply created.
type Summary struct {
	Users         int
	Participants  int
	Programs      int
	Yatras        int
	Registrations int
	Attendance    int
}

func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if len(f.Users) == 0 {
		return nil, fmt.Errorf("seed file must define at least one user")
	}
	return &f, nil
}

// Apply inserts the fixture. It stops at the first invalid row.
func (f *Fixture) Apply(ctx context.Context, store db.Store) (Summary, error) {
	var sum Summary

	owner := 0
	for i, u := range f.Users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return sum, fmt.Errorf("hash password for %s: %w", u.Email, err)
		}
		id, err := store.CreateUser(u.Email, string(hash), u.Name)
		if err != nil {
			return sum, fmt.Errorf("user %s: %w", u.Email, err)
		}
		if i == 0 {
			owner = id
		}
		sum.Users++
	}

	participants := map[string]int{}
	for _, p := range f.Participants {
		created, err := store.CreateParticipant(p.FullName, p.Email, p.Phone, owner)
		if err != nil {
			return sum, fmt.Errorf("participant %s: %w", p.FullName, err)
		}
		participants[p.FullName] = created.ID
		sum.Participants++
	}

	programs := map[string]int{}
	for _, p := range f.Programs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		first, err := time.Parse(db.DateLayout, p.FirstSession)
		if err != nil {
			return sum, fmt.Errorf("program %s: first_session: %w", p.Name, err)
		}
		clock, err := timefmt.ParseClock(p.StartTime)
		if err != nil {
			return sum, fmt.Errorf("program %s: %w", p.Name, err)
		}
		created, err := store.CreateProgram(model.Program{
			Name:            p.Name,
			Description:     p.Description,
			Location:        p.Location,
			StartTime:       clock.Format24h(),
			DurationMinutes: p.DurationMinutes,
			Recurrence:      p.Recurrence,
			FirstSession:    first,
			CreatedBy:       owner,
		})
		if err != nil {
			return sum, fmt.Errorf("program %s: %w", p.Name, err)
		}
		programs[p.Name] = created.ID
		sum.Programs++
	}

	for _, y := range f.Yatras {
		start, err := time.Parse(db.DateLayout, y.StartDate)
		if err != nil {
			return sum, fmt.Errorf("yatra %s: start_date: %w", y.Name, err)
		}
		end, err := time.Parse(db.DateLayout, y.EndDate)
		if err != nil {
			return sum, fmt.Errorf("yatra %s: end_date: %w", y.Name, err)
		}
		created, err := store.CreateYatra(model.Yatra{
			Name:          y.Name,
			Destination:   y.Destination,
			StartDate:     start,
			EndDate:       end,
			DepartureTime: y.DepartureTime,
			Capacity:      y.Capacity,
			CreatedBy:     owner,
		})
		if err != nil {
			return sum, fmt.Errorf("yatra %s: %w", y.Name, err)
		}
		sum.Yatras++

		for _, name := range y.Registrations {
			pid, ok := participants[name]
			if !ok {
				return sum, fmt.Errorf("yatra %s: unknown participant %q", y.Name, name)
			}
			if _, err := store.RegisterForYatra(created.ID, pid, owner); err != nil {
				return sum, fmt.Errorf("yatra %s: register %s: %w", y.Name, name, err)
			}
			sum.Registrations++
		}
	}

	for _, a := range f.Attendance {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		pid, ok := participants[a.Participant]
		if !ok {
			return sum, fmt.Errorf("attendance: unknown participant %q", a.Participant)
		}
		prog, ok := programs[a.Program]
		if !ok {
			return sum, fmt.Errorf("attendance: unknown program %q", a.Program)
		}
		date, err := time.Parse(db.DateLayout, a.Date)
		if err != nil {
			return sum, fmt.Errorf("attendance %s on %s: %w", a.Participant, a.Date, err)
		}
		checkIn, err := storedTime(a.CheckIn)
		if err != nil {
			return sum, fmt.Errorf("attendance %s on %s: check_in: %w", a.Participant, a.Date, err)
		}
		var checkOut *string
		if a.CheckOut != nil {
			out, err := storedTime(*a.CheckOut)
			if err != nil {
				return sum, fmt.Errorf("attendance %s on %s: check_out: %w", a.Participant, a.Date, err)
			}
			checkOut = &out
		}
		if _, err := store.CreateAttendance(model.AttendanceRecord{
			ParticipantID: pid,
			ProgramID:     prog,
			SessionDate:   date,
			CheckIn:       checkIn,
			CheckOut:      checkOut,
			Note:          a.Note,
			CreatedBy:     owner,
		}); err != nil {
			return sum, fmt.Errorf("attendance %s on %s: %w", a.Participant, a.Date, err)
		}
		sum.Attendance++
	}

	log.Info().
		Int("users", sum.Users).
		Int("participants", sum.Participants).
		Int("programs", sum.Programs).
		Int("yatras", sum.Yatras).
		Int("attendance", sum.Attendance).
		Msg("seed data applied")
	return sum, nil
}

// storedTime normalizes "H:mm" or "H:mm:ss" to the "HH:mm:ss" form
// check-ins are recorded in.
func storedTime(text string) (string, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, text); err == nil {
			return t.Format("15:04:05"), nil
		}
	}
	return "", fmt.Errorf("%w: %q", timefmt.ErrInvalidTime, text)
}
