package scan

import "fmt"

// Taxonomia de falhas do ciclo. Nada aqui é fatal para o processo: o pior
// desfecho é um ciclo parcialmente completo, relatado com honestidade no
// Summary.

// ProviderError: fetch de odds falhou ou estourou o tempo. Retentável na
// próxima invocação agendada, nunca dentro do mesmo run.
type ProviderError struct {
	Region string
	Err    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("odds provider failed for region %s: %v", e.Region, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// PersistenceError: escrita no cache autoritativo ou no estado do assinante
// falhou. Aparece por assinante/região no Summary, nunca derruba o ciclo.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed (%s): %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// AlertGatewayError: envio de alerta falhou. Logado; a contabilidade de
// dedup é atualizada de qualquer forma — reenviar um envio falhado repetido
// não tem utilidade.
type AlertGatewayError struct {
	SubscriberID string
	Err          error
}

func (e *AlertGatewayError) Error() string {
	return fmt.Sprintf("alert gateway failed for subscriber %s: %v", e.SubscriberID, e.Err)
}

func (e *AlertGatewayError) Unwrap() error { return e.Err }
