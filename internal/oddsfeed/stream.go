package oddsfeed

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// streamBatch é a mensagem do canal push do provedor: um lote de eventos de
// um esporte, com flag de término.
type streamBatch struct {
	SportKey string          `json:"sport_key"`
	Events   []providerEvent `json:"events"`
	Last     bool            `json:"last"`
}

// StreamClient consome o endpoint push (WebSocket) do provedor, quando
// habilitado; entrega os mesmos lotes chaveados por esporte do FetchOddsBatched
// sem esperar o fetch inteiro.
type StreamClient struct {
	URL string
	Log *zap.Logger
}

// StreamOdds conecta e entrega cada lote recebido ao callback até a mensagem
// final ou o cancelamento do contexto. Mensagens inválidas são puladas.
func (s *StreamClient) StreamOdds(ctx context.Context, fn BatchFunc) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	s.Log.Info("connected to odds stream", zap.String("url", s.URL))

	// fecha a conexão quando o contexto expira, destravando o ReadMessage
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		var b streamBatch
		if err := json.Unmarshal(message, &b); err != nil {
			s.Log.Warn("invalid stream batch", zap.Error(err))
			continue
		}

		fn(b.SportKey, convert(b.Events))
		if b.Last {
			return nil
		}
	}
}
