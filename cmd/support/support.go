// Package support implements the contact, feedback and waitlist commands.
package support

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/north-cloud/webunpack/cmd/common"
	"github.com/north-cloud/webunpack/infrastructure/logger"
	"github.com/north-cloud/webunpack/internal/domain"
	"github.com/north-cloud/webunpack/internal/store"
)

// ContactCommand returns the contact command.
func ContactCommand() *cobra.Command {
	var form domain.ContactForm

	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Open a support ticket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := form.Validate(); err != nil {
				return err
			}

			deps, err := common.NewCommandDeps(cmd)
			if err != nil {
				return err
			}
			defer deps.Close()

			ctx := cmd.Context()
			resp, err := deps.Client.Contact(ctx, form)
			if err != nil {
				return fmt.Errorf("send contact form: %w", err)
			}
			remember(ctx, deps, store.KeyLastTicket, resp.TicketID)
			return report(deps.Renderer(), resp, "Ticket", resp.TicketID)
		},
	}

	f := cmd.Flags()
	f.StringVar(&form.Name, "name", "", "your name")
	f.StringVar(&form.Email, "email", "", "reply address")
	f.StringVar(&form.Subject, "subject", "", "ticket subject")
	f.StringVar(&form.Message, "message", "", "ticket body")
	for _, name := range []string{"name", "email", "subject", "message"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

// FeedbackCommand returns the feedback command.
func FeedbackCommand() *cobra.Command {
	var (
		form           domain.FeedbackForm
		kind, priority string
	)

	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Send product feedback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			form.FeedbackType = domain.FeedbackType(kind)
			form.Priority = domain.Priority(priority)
			form = form.WithDefaults()
			if err := form.Validate(); err != nil {
				return err
			}

			deps, err := common.NewCommandDeps(cmd)
			if err != nil {
				return err
			}
			defer deps.Close()

			ctx := cmd.Context()
			resp, err := deps.Client.Feedback(ctx, form)
			if err != nil {
				return fmt.Errorf("send feedback: %w", err)
			}
			remember(ctx, deps, store.KeyLastFeedback, resp.FeedbackID)
			return report(deps.Renderer(), resp, "Feedback", resp.FeedbackID)
		},
	}

	f := cmd.Flags()
	f.StringVar(&kind, "type", string(domain.FeedbackGeneral), "general, feature or bug")
	f.StringVar(&priority, "priority", string(domain.PriorityMedium), "low, medium, high or urgent")
	f.StringVar(&form.Title, "title", "", "short summary")
	f.StringVar(&form.Description, "description", "", "details")
	f.StringVar(&form.Name, "name", "", "your name (optional)")
	f.StringVar(&form.Email, "email", "", "reply address (optional)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

// WaitlistCommand returns the waitlist command.
func WaitlistCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "waitlist <email>",
		Short: "Join the waitlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := domain.ValidateEmail(args[0]); err != nil {
				return err
			}

			deps, err := common.NewCommandDeps(cmd)
			if err != nil {
				return err
			}
			defer deps.Close()

			resp, err := deps.Client.Waitlist(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("join waitlist: %w", err)
			}

			r := deps.Renderer()
			if r.JSONMode() {
				return r.JSON(resp)
			}
			r.Printf("%s", messageOr(resp.Message, "You're on the list."))
			return nil
		},
	}
}

// remember records a returned id for later display. Failures are logged only.
func remember(ctx context.Context, deps *common.CommandDeps, key, id string) {
	if id == "" {
		return
	}
	if err := deps.Store.Set(ctx, key, id); err != nil {
		deps.Logger.Warn("Could not record submission id",
			logger.String("key", key),
			logger.Error(err),
		)
	}
}

func report(r *common.Renderer, resp *domain.SubmissionResponse, label, id string) error {
	if r.JSONMode() {
		return r.JSON(resp)
	}
	r.Printf("%s", messageOr(resp.Message, "Thanks, we received your message."))
	if id != "" {
		r.Printf("%s ID: %s", label, id)
	}
	return nil
}

func messageOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
