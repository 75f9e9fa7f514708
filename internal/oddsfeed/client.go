package oddsfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/radieske/odds-arb-scanner/pkg/contracts/markets"
)

// Sport é uma entrada do catálogo do provedor.
type Sport struct {
	Key          string `json:"key"`
	HasOutrights bool   `json:"has_outrights"`
}

// FetchResult agrega os eventos de um fetch e a cota restante informada pelo
// provedor (header de resposta).
type FetchResult struct {
	Events         []markets.EventOdds
	RemainingQuota int
}

// BatchFunc recebe lotes incrementais chaveados por esporte.
type BatchFunc func(sportKey string, batch []markets.EventOdds)

// Client consome a API medida do provedor de odds.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// New cria o cliente com timeout curto; o orquestrador controla o budget
// total via contexto.
func New(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// ListSports retorna o catálogo de esportes disponíveis.
func (c *Client) ListSports(ctx context.Context) ([]Sport, error) {
	u := fmt.Sprintf("%s/v4/sports?apiKey=%s", c.BaseURL, url.QueryEscape(c.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list sports: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return nil, fmt.Errorf("list sports http %d", res.StatusCode)
	}

	var sports []Sport
	if err := json.NewDecoder(res.Body).Decode(&sports); err != nil {
		return nil, fmt.Errorf("decode sports: %w", err)
	}
	return sports, nil
}

// FetchOdds busca odds de um conjunto de esportes/mercados/regiões em uma
// chamada por esporte, agregando o resultado.
func (c *Client) FetchOdds(ctx context.Context, sportKeys, marketTypes, regions []string) (FetchResult, error) {
	var out FetchResult
	err := c.FetchOddsBatched(ctx, sportKeys, marketTypes, regions, func(_ string, batch []markets.EventOdds) {
		out.Events = append(out.Events, batch...)
	}, &out.RemainingQuota)
	return out, err
}

// FetchOddsBatched é a variante incremental: cada esporte vira uma chamada e o
// lote resultante é entregue ao callback assim que chega, permitindo que o
// pipeline processe e publique parciais antes do fetch inteiro terminar.
func (c *Client) FetchOddsBatched(ctx context.Context, sportKeys, marketTypes, regions []string, fn BatchFunc, remaining *int) error {
	for _, sport := range sportKeys {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch, quota, err := c.fetchSport(ctx, sport, marketTypes, regions)
		if err != nil {
			return fmt.Errorf("fetch odds for %s: %w", sport, err)
		}
		if remaining != nil {
			*remaining = quota
		}
		fn(sport, batch)
	}
	return nil
}

func (c *Client) fetchSport(ctx context.Context, sportKey string, marketTypes, regions []string) ([]markets.EventOdds, int, error) {
	q := url.Values{}
	q.Set("apiKey", c.APIKey)
	q.Set("regions", strings.Join(regions, ","))
	q.Set("markets", strings.Join(marketTypes, ","))
	q.Set("oddsFormat", "decimal")
	u := fmt.Sprintf("%s/v4/sports/%s/odds?%s", c.BaseURL, url.PathEscape(sportKey), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, err
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return nil, 0, fmt.Errorf("http %d", res.StatusCode)
	}

	quota, _ := strconv.Atoi(res.Header.Get("x-requests-remaining"))

	var raw []providerEvent
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return nil, 0, fmt.Errorf("decode odds: %w", err)
	}
	return convert(raw), quota, nil
}

// Formato de fio do provedor: eventos com bookmakers aninhados por mercado.
type providerEvent struct {
	ID           string    `json:"id"`
	SportKey     string    `json:"sport_key"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	CommenceTime time.Time `json:"commence_time"`
	Bookmakers   []struct {
		Key     string `json:"key"`
		Title   string `json:"title"`
		Markets []struct {
			Key      string `json:"key"`
			Outcomes []struct {
				Name  string   `json:"name"`
				Price float64  `json:"price"`
				Point *float64 `json:"point,omitempty"`
			} `json:"outcomes"`
		} `json:"markets"`
	} `json:"bookmakers"`
}

// convert achata a estrutura do provedor no formato de entrada dos detectores.
func convert(raw []providerEvent) []markets.EventOdds {
	out := make([]markets.EventOdds, 0, len(raw))
	for _, pe := range raw {
		eo := markets.EventOdds{
			Event: markets.Event{
				ID:           pe.ID,
				SportKey:     pe.SportKey,
				HomeTeam:     pe.HomeTeam,
				AwayTeam:     pe.AwayTeam,
				CommenceTime: pe.CommenceTime,
			},
			Markets: map[string][]markets.Outcome{},
		}
		for _, bk := range pe.Bookmakers {
			for _, m := range bk.Markets {
				for _, o := range m.Outcomes {
					eo.Markets[m.Key] = append(eo.Markets[m.Key], markets.Outcome{
						Name:         o.Name,
						Bookmaker:    bk.Title,
						BookmakerKey: strings.ToLower(bk.Key),
						Odds:         o.Price,
						Point:        o.Point,
					})
				}
			}
		}
		out = append(out, eo)
	}
	return out
}
