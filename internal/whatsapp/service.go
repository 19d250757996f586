package whatsapp

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

// MessageHandler is a callback function for handling messages
type MessageHandler func(*events.Message) error

type Config struct {
	DataDir string
	// Chat receives sync notifications: a group JID or a phone number
	Chat   string
	Logger zerolog.Logger
}

type Service struct {
	client         *whatsmeow.Client
	cfg            *Config
	log            zerolog.Logger
	messageHandler MessageHandler

	chatMu  sync.Mutex
	chatJID types.JID
}

// NewService creates a new WhatsApp service
func NewService(cfg *Config) (*Service, error) {
	ctx := context.Background()
	logger := cfg.Logger.With().Str("component", "WhatsApp").Logger()

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// Use nil logger - sqlstore will use a no-op logger by default
	container, err := sqlstore.New(ctx, "sqlite3", fmt.Sprintf("file:%s/whatsmeow.db?_foreign_keys=on", cfg.DataDir), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	client := whatsmeow.NewClient(deviceStore, nil)

	service := &Service{
		client: client,
		cfg:    cfg,
		log:    logger,
	}

	client.AddEventHandler(func(evt interface{}) {
		service.eventHandler(evt)
	})

	return service, nil
}

// NormalizePhoneNumber strips formatting from a phone number. Numbers in
// the Israeli national format (0XXXXXXXXX) get the 972 country code.
func NormalizePhoneNumber(phoneNumber string) string {
	phoneNumber = strings.NewReplacer("+", "", " ", "", "-", "", "(", "", ")", "").Replace(phoneNumber)

	if strings.HasPrefix(phoneNumber, "0") && len(phoneNumber) == 10 {
		phoneNumber = "972" + phoneNumber[1:]
	}
	if strings.HasPrefix(phoneNumber, "9720") {
		phoneNumber = "972" + phoneNumber[4:]
	}
	return phoneNumber
}

// Connect connects to WhatsApp, showing a pairing QR code on first run
func (s *Service) Connect() error {
	if s.client.Store.ID != nil {
		if err := s.client.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		return nil
	}

	qrChan, _ := s.client.GetQRChannel(context.Background())
	if err := s.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	for evt := range qrChan {
		if evt.Event != "code" {
			s.log.Info().Str("event", evt.Event).Msg("Login event")
			continue
		}
		q, err := qrcode.New(evt.Code, qrcode.Medium)
		if err != nil {
			fmt.Printf("QR Code: %s\n", evt.Code)
			continue
		}
		fmt.Println("\n" + q.ToSmallString(false))
		fmt.Println("📱 Scan the QR code above in WhatsApp > Settings > Linked Devices")
	}
	return nil
}

// Disconnect disconnects from WhatsApp
func (s *Service) Disconnect() {
	s.client.Disconnect()
}

// ChatJID resolves the configured chat once. Failed lookups are retried on
// the next call.
func (s *Service) ChatJID(ctx context.Context) (types.JID, error) {
	s.chatMu.Lock()
	defer s.chatMu.Unlock()
	if !s.chatJID.IsEmpty() {
		return s.chatJID, nil
	}
	jid, err := s.resolve(ctx, s.cfg.Chat)
	if err != nil {
		return types.JID{}, err
	}
	s.chatJID = jid.ToNonAD()
	return s.chatJID, nil
}

// Notify sends a sync notification to the configured chat
func (s *Service) Notify(ctx context.Context, message string) error {
	jid, err := s.ChatJID(ctx)
	if err != nil {
		return err
	}
	return s.send(ctx, jid, message)
}

// SendMessage sends a text message to a group JID or a phone number
func (s *Service) SendMessage(ctx context.Context, chat, message string) error {
	jid, err := s.resolve(ctx, chat)
	if err != nil {
		return err
	}
	return s.send(ctx, jid, message)
}

func (s *Service) send(ctx context.Context, jid types.JID, message string) error {
	s.log.Debug().Str("jid", jid.String()).Msg("Attempting to send message")
	sent, err := s.client.SendMessage(ctx, jid, &waE2E.Message{
		Conversation: &message,
	})
	if err != nil {
		return fmt.Errorf("failed to send message to %s: %w", jid.String(), err)
	}
	s.log.Debug().Str("id", sent.ID).Time("timestamp", sent.Timestamp).Msg("Message sent")
	return nil
}

// resolve turns a chat reference into a JID. Group and full JIDs are used
// as given; phone numbers must be registered on WhatsApp.
func (s *Service) resolve(ctx context.Context, chat string) (types.JID, error) {
	if strings.Contains(chat, "@") {
		jid, err := types.ParseJID(chat)
		if err != nil {
			return types.JID{}, fmt.Errorf("invalid chat %q: %w", chat, err)
		}
		return jid, nil
	}

	phoneNumber := NormalizePhoneNumber(chat)
	resp, err := s.client.IsOnWhatsApp(ctx, []string{"+" + phoneNumber})
	if err != nil {
		return types.JID{}, fmt.Errorf("failed to verify number on WhatsApp: %w", err)
	}
	if len(resp) == 0 || !resp[0].IsIn {
		return types.JID{}, fmt.Errorf("number %s is not registered on WhatsApp", phoneNumber)
	}
	return resp[0].JID, nil
}

// eventHandler handles incoming WhatsApp events
func (s *Service) eventHandler(evt interface{}) {
	switch evt := evt.(type) {
	case *events.Message:
		s.handleMessage(evt)
	case *events.Connected:
		s.log.Info().Msg("Connected to WhatsApp")
	case *events.Disconnected:
		s.log.Info().Msg("Disconnected from WhatsApp")
	case *events.LoggedOut:
		s.log.Info().Msg("Logged out from WhatsApp")
	}
}

func (s *Service) handleMessage(msg *events.Message) {
	// Skip messages from self
	if msg.Info.IsFromMe {
		return
	}

	if s.messageHandler == nil {
		s.log.Debug().Str("sender", msg.Info.Sender.String()).Msg("Received message")
		return
	}
	if err := s.messageHandler(msg); err != nil {
		s.log.Error().Err(err).Msg("Error handling message")
	}
}

// SetMessageHandler sets a custom handler for incoming messages
func (s *Service) SetMessageHandler(handler MessageHandler) {
	s.messageHandler = handler
}
