package services

import (
	"context"
	"fmt"
	"html"
	"strings"

	"review-publish-api/config"
	"review-publish-api/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MailPublishNotifier mails a receipt to the admin who released a batch.
type MailPublishNotifier struct {
	db   *gorm.DB
	log  *zap.SugaredLogger
	send func(to []string, subject, html string) error
}

func NewMailPublishNotifier(db *gorm.DB, log *zap.SugaredLogger) *MailPublishNotifier {
	if db == nil {
		db = config.DB
	}
	if log == nil {
		log = config.Logger()
	}
	return &MailPublishNotifier{
		db:   db,
		log:  log.With("service", "MailPublishNotifier"),
		send: config.SendMail,
	}
}

func (n *MailPublishNotifier) PublicationsReleased(ctx context.Context, receipt PublishReceipt) error {
	var user models.User
	if err := n.db.WithContext(ctx).
		Where("user_id = ? AND deleted_at IS NULL", receipt.PublishedBy).
		First(&user).Error; err != nil {
		return translateNotFound(err, "user %d", receipt.PublishedBy)
	}
	if strings.TrimSpace(user.Email) == "" {
		n.log.Debugw("publisher has no email, skipping receipt", "batch_id", receipt.BatchID)
		return nil
	}

	var program models.Program
	if err := n.db.WithContext(ctx).
		Where("program_id = ?", receipt.ProgramID).
		First(&program).Error; err != nil {
		return translateNotFound(err, "program %d", receipt.ProgramID)
	}

	subject := fmt.Sprintf("%d result(s) published for %s", len(receipt.Publications), program.Name)
	return n.send([]string{user.Email}, subject, renderReceipt(user, program, receipt))
}

func renderReceipt(user models.User, program models.Program, receipt PublishReceipt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>Hello %s,</p>", html.EscapeString(user.Name))
	fmt.Fprintf(&b, "<p>%d result(s) of <strong>%s</strong> were published at %s.</p>",
		len(receipt.Publications),
		html.EscapeString(program.Name),
		receipt.PublishedAt.Format("2006-01-02 15:04 MST"),
	)
	b.WriteString("<ul>")
	for _, pub := range receipt.Publications {
		fmt.Fprintf(&b, "<li>Application #%d</li>", pub.ApplicationID)
	}
	b.WriteString("</ul>")
	fmt.Fprintf(&b, "<p>Batch %s</p>", html.EscapeString(receipt.BatchID))
	return b.String()
}
