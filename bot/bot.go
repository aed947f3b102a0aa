package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/korjavin/integralsheet/config"
	"github.com/korjavin/integralsheet/database"
	"github.com/korjavin/integralsheet/latex"
	"github.com/korjavin/integralsheet/models"
	"github.com/korjavin/integralsheet/pipeline"
)

// maxUploadBytes caps assignment files accepted from chat.
const maxUploadBytes = 5 << 20

// Bot represents the Telegram bot
type Bot struct {
	api        *tgbotapi.BotAPI
	db         *database.DB
	processor  *pipeline.Processor
	cfg        *config.Config
	logger     *zap.Logger
	httpClient *http.Client
}

const (
	cmdStart   = "start"
	cmdHelp    = "help"
	cmdStat    = "stat"
	cmdRewrite = "rewrite"
)

// New creates a new bot instance
func New(cfg *config.Config, db *database.DB, processor *pipeline.Processor, logger *zap.Logger) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	botAPI.Debug = cfg.Bot.Debug

	return &Bot{
		api:        botAPI,
		db:         db,
		processor:  processor,
		cfg:        cfg,
		logger:     logger.Named("bot"),
		httpClient: &http.Client{Timeout: time.Minute},
	}, nil
}

// Start listens for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	b.logger.Info("starting bot polling", zap.String("username", b.api.Self.UserName))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				b.handleMessage(ctx, update.Message)
			}
		}
	}
}

// handleMessage processes incoming messages
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	b.logger.Debug("received message",
		zap.Int64("chat_id", message.Chat.ID),
		zap.String("text", message.Text),
		zap.Bool("document", message.Document != nil))

	if message.Document != nil {
		b.handleDocument(ctx, message)
		return
	}

	switch message.Command() {
	case cmdStart:
		b.sendMessage(message.Chat.ID, welcomeText)
	case cmdHelp:
		b.sendMessage(message.Chat.ID, helpText)
	case cmdStat:
		b.handleStatCommand(message)
	case cmdRewrite:
		b.handleRewriteCommand(message)
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Send an assignment .json file, or use /help for assistance.")
	}
}

const welcomeText = `Welcome to IntegralSheet!

Send me an assignment file (.json) and I will solve its integrals and reply with the LaTeX answer sheet.

Commands:
/help - How the assignment file looks
/stat - Processing statistics
/rewrite <expr> - Show the LaTeX form of an expression`

const helpText = `An assignment file has a "metadata" block (course, assignment, output_settings) and a list of "exercises".

Each exercise needs an "id", a "function" and its "integrals":
{"id": 1, "function": "x*y", "integrals": [{"var": "x", "limits": {"lower": "0", "upper": "1"}, "order": 0}]}

Exercises sharing an id are grouped; use "id_letter" and "id_part" to label the parts.`

// handleStatCommand handles the /stat command
func (b *Bot) handleStatCommand(message *tgbotapi.Message) {
	stats, err := b.db.GetRunStats()
	if err != nil {
		b.logger.Error("could not read run stats", zap.Error(err))
		b.sendMessage(message.Chat.ID, "Sorry, I couldn't retrieve the statistics. Please try again later.")
		return
	}
	recent, err := b.db.RecentRuns(3)
	if err != nil {
		b.logger.Error("could not read recent runs", zap.Error(err))
	}
	b.sendMessage(message.Chat.ID, formatStats(stats, recent))
}

func (b *Bot) handleRewriteCommand(message *tgbotapi.Message) {
	expr := strings.TrimSpace(message.CommandArguments())
	if expr == "" {
		b.sendMessage(message.Chat.ID, "Usage: /rewrite x**2*sin(theta)")
		return
	}
	b.sendMarkdown(message.Chat.ID, "```\n"+latex.Rewrite(expr)+"\n```")
}

// handleDocument downloads an uploaded assignment, runs it through the
// pipeline and replies with the generated files.
func (b *Bot) handleDocument(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	doc := message.Document
	if reason := rejectReason(doc); reason != "" {
		b.sendMessage(chatID, reason)
		return
	}

	status, err := b.api.Send(tgbotapi.NewMessage(chatID, "Solving "+doc.FileName+", please wait a moment..."))
	if err != nil {
		b.logger.Error("could not send status message", zap.Error(err))
	}

	dir, err := os.MkdirTemp("", "integralsheet-upload-")
	if err != nil {
		b.logger.Error("could not create upload dir", zap.Error(err))
		b.reply(chatID, status.MessageID, "Sorry, something went wrong on my side.")
		return
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, filepath.Base(doc.FileName))
	if err := b.download(ctx, doc.FileID, input); err != nil {
		b.logger.Error("download failed", zap.String("file", doc.FileName), zap.Error(err))
		b.reply(chatID, status.MessageID, "Sorry, I couldn't download the file. Please try again later.")
		return
	}

	started := time.Now()
	out, err := b.processor.Generate(ctx, input, b.cfg.Output.CompilePDF)
	if err != nil {
		b.logger.Warn("generation failed", zap.String("file", doc.FileName), zap.Error(err))
		b.reply(chatID, status.MessageID, "I couldn't process this assignment: "+err.Error())
		return
	}
	b.logger.Info("assignment generated",
		zap.Int64("chat_id", chatID),
		zap.String("file", doc.FileName),
		zap.Duration("took", time.Since(started)))

	b.reply(chatID, status.MessageID, formatSummary(out))
	b.sendFile(chatID, out.TeX)
	if out.PDF != "" {
		b.sendFile(chatID, out.PDF)
	}
}

// rejectReason explains why an upload cannot be an assignment file, or
// returns "" when it looks fine.
func rejectReason(doc *tgbotapi.Document) string {
	if !strings.EqualFold(filepath.Ext(doc.FileName), ".json") {
		return fmt.Sprintf("Please send the assignment as a .json file (got %q).", doc.FileName)
	}
	if doc.FileSize > maxUploadBytes {
		return fmt.Sprintf("The file is too large (%d KB, at most %d KB).", doc.FileSize>>10, maxUploadBytes>>10)
	}
	return ""
}

func (b *Bot) download(ctx context.Context, fileID, dst string) error {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download status %d", resp.StatusCode)
	}

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, io.LimitReader(resp.Body, maxUploadBytes+1)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatSummary(out *pipeline.Output) string {
	info := out.Assignment.Metadata.ProcessingInfo
	var b strings.Builder
	fmt.Fprintf(&b, "Done: %d exercises", info.TotalExercises)
	if info.ProcessingTime != nil {
		fmt.Fprintf(&b, " in %s", *info.ProcessingTime)
	}
	b.WriteString(".")
	if n := len(info.Errors); n > 0 {
		fmt.Fprintf(&b, "\n\n%d could not be solved:", n)
		for _, e := range info.Errors {
			b.WriteString("\n- ")
			b.WriteString(e)
		}
	}
	if out.PDF == "" {
		b.WriteString("\n\nOnly the LaTeX source is attached.")
	}
	return b.String()
}

func formatStats(stats models.RunStats, recent []models.Run) string {
	var b strings.Builder
	fmt.Fprintf(&b, `📊 Statistics:

Assignments processed: %d
Exercises: %d
Failed exercises: %d`, stats.Runs, stats.Exercises, stats.Failed)
	if len(recent) > 0 {
		b.WriteString("\n\nRecent runs:\n")
		for i, r := range recent {
			fmt.Fprintf(&b, "%d. %s: %d exercises, %d failed (%s)\n",
				i+1, r.Source, r.Total, r.Failed, r.StartedAt.Format("2006-01-02 15:04"))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// sendMessage sends a plain text message
func (b *Bot) sendMessage(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.logger.Error("error sending message", zap.Error(err))
	}
}

// sendMarkdown sends a MarkdownV2 message, falling back to plain text.
func (b *Bot) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, escapeMarkdown(text))
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("markdown message failed, falling back to plain text", zap.Error(err))
		b.sendMessage(chatID, text)
	}
}

// escapeMarkdown escapes text for Telegram's MarkdownV2. Inside ``` blocks
// only backslashes and backticks are escaped.
func escapeMarkdown(text string) string {
	specialChars := []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	codeChars := []string{"\\", "`"}

	parts := strings.Split(text, "```")
	for i := range parts {
		chars := specialChars
		if i%2 == 1 {
			chars = codeChars
		}
		for _, char := range chars {
			parts[i] = strings.ReplaceAll(parts[i], char, "\\"+char)
		}
	}
	return strings.Join(parts, "```")
}

// reply edits the status message, or sends a new one when there is none.
func (b *Bot) reply(chatID int64, messageID int, text string) {
	if messageID == 0 {
		b.sendMessage(chatID, text)
		return
	}
	if _, err := b.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		b.logger.Warn("error editing message", zap.Error(err))
		b.sendMessage(chatID, text)
	}
}

// sendFile uploads a generated file as a document.
func (b *Bot) sendFile(chatID int64, path string) {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	if _, err := b.api.Send(doc); err != nil {
		b.logger.Error("error sending file", zap.String("path", path), zap.Error(err))
		b.sendMessage(chatID, fmt.Sprintf("(Note: %s could not be sent.)", filepath.Base(path)))
	}
}
