package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/nhle/hsck/internal/model"
)

// promptConfirm asks on the terminal whether reminders should be sent.
func promptConfirm(ctx context.Context, homework string, students []model.Student) (bool, error) {
	names := make([]string, 0, len(students))
	for _, stu := range students {
		names = append(names, stu.String())
	}

	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Send the %q reminder to %d students?", homework, len(students))).
				Description(strings.Join(names, "\n")).
				Affirmative("Send").
				Negative("Cancel").
				Value(&ok),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		return false, err
	}
	return ok, nil
}

// promptPassword reads a password on the terminal without echoing it.
func promptPassword(ctx context.Context, key string) (string, error) {
	var password string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Password for " + key).
				EchoMode(huh.EchoModePassword).
				Value(&password).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("password is required")
					}
					return nil
				}),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		return "", err
	}
	return password, nil
}
