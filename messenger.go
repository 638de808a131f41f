package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MixinNetwork/cards/card"
	"github.com/MixinNetwork/cards/config"
	"github.com/MixinNetwork/mixin/crypto"
	"github.com/MixinNetwork/mixin/logger"
	"github.com/fox-one/mixin-sdk-go"
	"github.com/gofrs/uuid"
)

const (
	commandMint  = "MINT"
	commandCards = "CARDS"
	commandCard  = "CARD"
)

// MessengerWorker answers plain text commands from Mixin Messenger users:
//
//	MINT <name> <rarity> <power>
//	CARDS
//	CARD <id>
type MessengerWorker struct {
	client   *mixin.Client
	registry *card.Registry
}

type command struct {
	action string
	name   string
	rarity card.Rarity
	power  uint32
	id     uint64
}

func NewMessengerWorker(ctx context.Context, registry *card.Registry, conf *config.MessengerConfig) (*MessengerWorker, error) {
	s := &mixin.Keystore{
		ClientID:   conf.ClientId,
		SessionID:  conf.SessionId,
		PrivateKey: conf.PrivateKey,
		PinToken:   conf.PinToken,
	}
	client, err := mixin.NewFromKeystore(s)
	if err != nil {
		return nil, err
	}
	mw := &MessengerWorker{
		client:   client,
		registry: registry,
	}
	go mw.loop(ctx)
	return mw, nil
}

func (mw *MessengerWorker) loop(ctx context.Context) {
	for {
		err := mw.client.LoopBlaze(ctx, mw)
		logger.Printf("LoopBlaze() => %v\n", err)
		if ctx.Err() != nil {
			break
		}
		time.Sleep(3 * time.Second)
	}
}

func (mw *MessengerWorker) OnMessage(ctx context.Context, msg *mixin.MessageView, userId string) error {
	if msg.Category != mixin.MessageCategoryPlainText {
		return nil
	}
	if _, err := uuid.FromString(msg.UserID); err != nil {
		return nil
	}
	data, err := decodeMessageData(msg.Data)
	if err != nil {
		logger.Verbosef("MessengerWorker.OnMessage(%s) => %v\n", msg.MessageID, err)
		return nil
	}

	var reply string
	cmd, err := parseCommand(string(data))
	if err != nil {
		reply = err.Error()
	} else {
		reply = mw.handleCommand(ctx, msg, cmd)
	}

	mr := &mixin.MessageRequest{
		ConversationID: msg.ConversationID,
		RecipientID:    msg.UserID,
		Category:       mixin.MessageCategoryPlainText,
		MessageID:      mixin.UniqueConversationID(msg.MessageID, "reply"),
		Data:           base64.RawURLEncoding.EncodeToString([]byte(reply)),
	}
	return mw.client.SendMessage(ctx, mr)
}

func (mw *MessengerWorker) OnAckReceipt(ctx context.Context, msg *mixin.MessageView, userId string) error {
	return nil
}

func (mw *MessengerWorker) handleCommand(ctx context.Context, msg *mixin.MessageView, cmd *command) string {
	owner := addressForUser(msg.UserID)
	switch cmd.action {
	case commandMint:
		traceId := mixin.UniqueConversationID(msg.MessageID, "mint")
		id, err := mw.registry.MintCardOnce(ctx, traceId, owner, []byte(cmd.name), cmd.rarity, cmd.power)
		if err != nil {
			return "mint failed: " + err.Error()
		}
		return fmt.Sprintf("minted card #%d %s to %s", id, cmd.name, owner)
	case commandCards:
		ids, err := mw.registry.GetPlayerCards(ctx, owner)
		if err != nil {
			return "query failed: " + err.Error()
		}
		if len(ids) == 0 {
			return "you have no cards"
		}
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = "#" + strconv.FormatUint(id, 10)
		}
		return strings.Join(parts, " ")
	case commandCard:
		c, err := mw.registry.GetCard(ctx, cmd.id)
		if err != nil {
			return "query failed: " + err.Error()
		}
		if c == nil {
			return fmt.Sprintf("card #%d not found", cmd.id)
		}
		return fmt.Sprintf("#%d %s %s power %d owned by %s", cmd.id, c.Name, c.Rarity, c.Power, c.Owner)
	}
	panic(cmd.action)
}

// addressForUser maps a Mixin user to the card owner address space.
func addressForUser(userId string) card.Address {
	return card.Address(crypto.NewHash([]byte(userId)))
}

func parseCommand(text string) (*command, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, errors.New("empty command")
	}
	cmd := &command{action: strings.ToUpper(fields[0])}
	switch cmd.action {
	case commandMint:
		if len(fields) < 4 {
			return nil, errors.New("usage: MINT <name> <rarity> <power>")
		}
		n := len(fields)
		rarity, err := strconv.ParseUint(fields[n-2], 10, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid rarity %s", fields[n-2])
		}
		power, err := strconv.ParseUint(fields[n-1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid power %s", fields[n-1])
		}
		cmd.name = strings.Join(fields[1:n-2], " ")
		cmd.rarity = card.Rarity(rarity)
		cmd.power = uint32(power)
	case commandCards:
	case commandCard:
		if len(fields) != 2 {
			return nil, errors.New("usage: CARD <id>")
		}
		id, err := strconv.ParseUint(strings.TrimPrefix(fields[1], "#"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid card id %s", fields[1])
		}
		cmd.id = id
	default:
		return nil, fmt.Errorf("unknown command %s", fields[0])
	}
	return cmd, nil
}

func decodeMessageData(data string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(data)
	if err == nil {
		return b, nil
	}
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
}
