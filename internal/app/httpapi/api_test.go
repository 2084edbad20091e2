package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marcelojr/quando-pode/internal/app/voting"
	"github.com/marcelojr/quando-pode/internal/domain"
)

const pollID = "01J0Z3F6Q8W2K5M7N9P1R3T5V7"

// MockVotingService implementa VotingService para testes
type MockVotingService struct {
	mock.Mock
}

func (m *MockVotingService) CreatePoll(ctx context.Context, in voting.CreatePollInput) (voting.CreatedPoll, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(voting.CreatedPoll), args.Error(1)
}

func (m *MockVotingService) GetPoll(ctx context.Context, id domain.PollID) (domain.Poll, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Poll), args.Error(1)
}

func (m *MockVotingService) AuthenticateOrRegister(ctx context.Context, id domain.PollID, nickname, passphrase string) (voting.AuthResult, error) {
	args := m.Called(ctx, id, nickname, passphrase)
	return args.Get(0).(voting.AuthResult), args.Error(1)
}

func (m *MockVotingService) SubmitVote(ctx context.Context, id domain.PollID, nickname, passphrase string, selected []string) error {
	args := m.Called(ctx, id, nickname, passphrase, selected)
	return args.Error(0)
}

func (m *MockVotingService) Stats(ctx context.Context, id domain.PollID) (domain.PollStats, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.PollStats), args.Error(1)
}

func (m *MockVotingService) RecentActivity(ctx context.Context, id domain.PollID, limit int) ([]domain.ActivityEvent, error) {
	args := m.Called(ctx, id, limit)
	return args.Get(0).([]domain.ActivityEvent), args.Error(1)
}

// setupAPI monta o mux com a API sobre um serviço mockado
func setupAPI(t *testing.T) (*http.ServeMux, *MockVotingService) {
	mockService := new(MockVotingService)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{}))
	mux := http.NewServeMux()
	New(mockService, logger).Register(mux)

	t.Cleanup(func() {
		mockService.AssertExpectations(t)
	})

	return mux, mockService
}

func executar(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func lerErro(t *testing.T, w *httptest.ResponseRecorder) string {
	var resp map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp["error"]
}

// === GET /healthz ===

func TestHealthz_QuandoSolicitado_DeveRetornar200OK(t *testing.T) {
	mux, _ := setupAPI(t)

	w := executar(mux, "GET", "/healthz", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

// === POST /api/polls ===

func TestCriarEnquete_QuandoValida_DeveRetornar201ComLink(t *testing.T) {
	mux, mockService := setupAPI(t)

	entrada := voting.CreatePollInput{Title: "Team outing", VoteType: "date", PeriodStart: "2025-06-10", PeriodEnd: "2025-06-12"}
	mockService.On("CreatePoll", mock.Anything, entrada).Return(voting.CreatedPoll{
		Poll:      domain.Poll{ID: pollID},
		ShareLink: "/vote/" + pollID,
	}, nil)

	w := executar(mux, "POST", "/api/polls", `{"title":"Team outing","voteType":"date","periodStartDate":"2025-06-10","periodEndDate":"2025-06-12"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, pollID, resp["pollId"])
	assert.Equal(t, "/vote/"+pollID, resp["shareableLink"])
	assert.NotEmpty(t, resp["message"])
}

func TestCriarEnquete_QuandoEntradaInvalida_DeveRetornar400ComMotivo(t *testing.T) {
	mux, mockService := setupAPI(t)

	mockService.On("CreatePoll", mock.Anything, mock.Anything).
		Return(voting.CreatedPoll{}, fmt.Errorf("%w: fim antes do inicio", voting.ErrInvalidInput))

	w := executar(mux, "POST", "/api/polls", `{"title":"x","voteType":"date","periodStartDate":"2025-06-12","periodEndDate":"2025-06-10"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, lerErro(t, w), "fim antes do inicio")
}

func TestCriarEnquete_QuandoPayloadMalformado_DeveRetornar400SemChamarServico(t *testing.T) {
	mux, _ := setupAPI(t)

	w := executar(mux, "POST", "/api/polls", `{"title":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "payload invalido", lerErro(t, w))
}

func TestCriarEnquete_QuandoFalhaInterna_DeveRetornar500Generico(t *testing.T) {
	mux, mockService := setupAPI(t)

	mockService.On("CreatePoll", mock.Anything, mock.Anything).
		Return(voting.CreatedPoll{}, fmt.Errorf("%w: dial tcp 10.0.0.5:5432: connection refused", voting.ErrInternal))

	w := executar(mux, "POST", "/api/polls", `{"title":"x","voteType":"date","periodStartDate":"2025-06-10","periodEndDate":"2025-06-10"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	msg := lerErro(t, w)
	assert.Equal(t, mensagemErroInterno, msg)
	assert.NotContains(t, msg, "10.0.0.5")
}

func TestCriarEnquete_QuandoMetodoErrado_DeveRetornar405(t *testing.T) {
	mux, _ := setupAPI(t)

	w := executar(mux, "PUT", "/api/polls", `{}`)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

// === GET /api/polls/{pollId} ===

func TestObterEnquete_QuandoExiste_DeveRetornarProjecaoCompleta(t *testing.T) {
	mux, mockService := setupAPI(t)

	dias, err := domain.DateRange("2025-06-10", "2025-06-11")
	require.NoError(t, err)
	poll := domain.Poll{
		ID:          pollID,
		Title:       "Team outing",
		VoteType:    domain.VoteTypeDatetime,
		PeriodStart: "2025-06-10",
		PeriodEnd:   "2025-06-11",
		Options:     domain.NewLedger(dias, domain.VoteTypeDatetime).Replace("alice", []domain.Date{"2025-06-11"}),
		CreatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	mockService.On("GetPoll", mock.Anything, domain.PollID(pollID)).Return(poll, nil)

	w := executar(mux, "GET", "/api/polls/"+pollID, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"id": "`+pollID+`",
		"title": "Team outing",
		"voteType": "datetime",
		"periodStartDate": "2025-06-10",
		"periodEndDate": "2025-06-11",
		"createdAt": "2025-06-01T12:00:00Z",
		"options": [
			{"date": "2025-06-10", "label": "10 de jun (ter)", "votes": [], "timeSlots": []},
			{"date": "2025-06-11", "label": "11 de jun (qua)", "votes": ["alice"], "timeSlots": []}
		]
	}`, w.Body.String())
}

func TestObterEnquete_QuandoNaoExiste_DeveRetornar404(t *testing.T) {
	mux, mockService := setupAPI(t)

	mockService.On("GetPoll", mock.Anything, domain.PollID(pollID)).Return(domain.Poll{}, voting.ErrPollNotFound)

	w := executar(mux, "GET", "/api/polls/"+pollID, "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, voting.ErrPollNotFound.Error(), lerErro(t, w))
}

func TestObterEnquete_QuandoIDMalformado_DeveRetornar404SemChamarServico(t *testing.T) {
	mux, _ := setupAPI(t)

	w := executar(mux, "GET", "/api/polls/nao-e-ulid", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// === POST /api/polls/{pollId}/participant-auth ===

func TestAutenticarParticipante_QuandoPrimeiroContato_DeveRetornar200ComSelecaoVazia(t *testing.T) {
	mux, mockService := setupAPI(t)

	mockService.On("AuthenticateOrRegister", mock.Anything, domain.PollID(pollID), "alice", "secret").
		Return(voting.AuthResult{Nickname: "alice", PreviousSelection: []domain.Date{}, Registered: true}, nil)

	w := executar(mux, "POST", "/api/polls/"+pollID+"/participant-auth", `{"nickname":"alice","password":"secret"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"registered":true,"participant":{"nickname":"alice"},"previousSelectedDates":[]}`, w.Body.String())
}

func TestAutenticarParticipante_QuandoJaVotou_DeveDevolverSelecaoAnterior(t *testing.T) {
	mux, mockService := setupAPI(t)

	mockService.On("AuthenticateOrRegister", mock.Anything, domain.PollID(pollID), "alice", "secret").
		Return(voting.AuthResult{Nickname: "alice", PreviousSelection: []domain.Date{"2025-06-10", "2025-06-12"}}, nil)

	w := executar(mux, "POST", "/api/polls/"+pollID+"/participant-auth", `{"nickname":"alice","password":"secret"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp autenticacaoResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, []domain.Date{"2025-06-10", "2025-06-12"}, resp.PreviousSelectedDates)
	assert.False(t, resp.Registered)
}

func TestAutenticarParticipante_QuandoErroDoServico_DeveMapearStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "campos vazios", err: fmt.Errorf("%w: apelido e senha sao obrigatorios", voting.ErrInvalidInput), status: http.StatusBadRequest},
		{name: "enquete inexistente", err: voting.ErrPollNotFound, status: http.StatusNotFound},
		{name: "senha errada", err: voting.ErrUnauthorized, status: http.StatusUnauthorized},
		{name: "registro corrompido", err: fmt.Errorf("%w: participante sem hash", voting.ErrInternal), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, mockService := setupAPI(t)
			mockService.On("AuthenticateOrRegister", mock.Anything, domain.PollID(pollID), "alice", "x").
				Return(voting.AuthResult{}, tt.err)

			w := executar(mux, "POST", "/api/polls/"+pollID+"/participant-auth", `{"nickname":"alice","password":"x"}`)

			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, lerErro(t, w))
		})
	}
}

// === POST /api/polls/{pollId}/vote ===

func TestRegistrarVoto_QuandoValido_DeveRetornar200(t *testing.T) {
	mux, mockService := setupAPI(t)

	mockService.On("SubmitVote", mock.Anything, domain.PollID(pollID), "alice", "secret", []string{"2025-06-10", "2025-06-12"}).
		Return(nil)

	w := executar(mux, "POST", "/api/polls/"+pollID+"/vote", `{"nickname":"alice","password":"secret","selectedDates":["2025-06-10","2025-06-12"]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, true, resp["success"])
	assert.NotEmpty(t, resp["message"])
}

func TestRegistrarVoto_QuandoErroDoServico_DeveMapearStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "selecao vazia", err: fmt.Errorf("%w: datas obrigatorias", voting.ErrInvalidInput), status: http.StatusBadRequest},
		{name: "enquete inexistente", err: voting.ErrPollNotFound, status: http.StatusNotFound},
		{name: "nao registrado", err: voting.ErrNotRegistered, status: http.StatusForbidden},
		{name: "senha errada", err: voting.ErrUnauthorized, status: http.StatusUnauthorized},
		{name: "transacao abortada", err: fmt.Errorf("%w: gravar voto: %w", voting.ErrInternal, domain.ErrCorruptRecord), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, mockService := setupAPI(t)
			mockService.On("SubmitVote", mock.Anything, domain.PollID(pollID), "alice", "secret", []string(nil)).
				Return(tt.err)

			w := executar(mux, "POST", "/api/polls/"+pollID+"/vote", `{"nickname":"alice","password":"secret"}`)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusInternalServerError {
				assert.Equal(t, mensagemErroInterno, lerErro(t, w))
			}
		})
	}
}

// === GET /api/polls/{pollId}/stats e /activity ===

func TestObterEstatisticas_QuandoExiste_DeveRetornarContadores(t *testing.T) {
	mux, mockService := setupAPI(t)

	mockService.On("Stats", mock.Anything, domain.PollID(pollID)).
		Return(domain.PollStats{PollID: pollID, Participants: 3, Submissions: 7}, nil)

	w := executar(mux, "GET", "/api/polls/"+pollID+"/stats", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"pollId":"`+pollID+`","participants":3,"submissions":7}`, w.Body.String())
}

func TestListarAtividade_QuandoSemLimit_DeveUsarPadraoDoServico(t *testing.T) {
	mux, mockService := setupAPI(t)

	eventos := []domain.ActivityEvent{{ID: "ev-1", PollID: pollID, Nickname: "alice", Kind: domain.ActivityVoted, DatesCount: 2}}
	mockService.On("RecentActivity", mock.Anything, domain.PollID(pollID), 0).Return(eventos, nil)

	w := executar(mux, "GET", "/api/polls/"+pollID+"/activity", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var resp []domain.ActivityEvent
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp, 1)
	assert.Equal(t, domain.ActivityVoted, resp[0].Kind)
}

func TestListarAtividade_QuandoLimitInformado_DeveRepassar(t *testing.T) {
	mux, mockService := setupAPI(t)

	mockService.On("RecentActivity", mock.Anything, domain.PollID(pollID), 5).Return([]domain.ActivityEvent{}, nil)

	w := executar(mux, "GET", "/api/polls/"+pollID+"/activity?limit=5", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestListarAtividade_QuandoLimitNaoNumerico_DeveRetornar400(t *testing.T) {
	mux, _ := setupAPI(t)

	w := executar(mux, "GET", "/api/polls/"+pollID+"/activity?limit=muitos", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListarAtividade_QuandoLimitZero_DeveSerRecusadoPeloServico(t *testing.T) {
	mux, mockService := setupAPI(t)

	mockService.On("RecentActivity", mock.Anything, domain.PollID(pollID), -1).
		Return([]domain.ActivityEvent(nil), fmt.Errorf("%w: limit fora da faixa", voting.ErrInvalidInput))

	w := executar(mux, "GET", "/api/polls/"+pollID+"/activity?limit=0", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
