// Pacote httpapi expõe os handlers REST e traduz requisições HTTP para o serviço de enquetes.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/marcelojr/quando-pode/internal/app/voting"
	"github.com/marcelojr/quando-pode/internal/domain"
	"github.com/marcelojr/quando-pode/internal/platform/health"
	"github.com/marcelojr/quando-pode/internal/platform/ids"
)

const maxBodyBytes = 1 << 20

const mensagemErroInterno = "falha ao processar a requisicao, tente novamente"

// VotingService é o recorte do voting.Service usado pelos handlers.
type VotingService interface {
	CreatePoll(ctx context.Context, in voting.CreatePollInput) (voting.CreatedPoll, error)
	GetPoll(ctx context.Context, id domain.PollID) (domain.Poll, error)
	AuthenticateOrRegister(ctx context.Context, pollID domain.PollID, nickname, passphrase string) (voting.AuthResult, error)
	SubmitVote(ctx context.Context, pollID domain.PollID, nickname, passphrase string, selected []string) error
	Stats(ctx context.Context, pollID domain.PollID) (domain.PollStats, error)
	RecentActivity(ctx context.Context, pollID domain.PollID, limit int) ([]domain.ActivityEvent, error)
}

// API empacota handlers HTTP ligados ao serviço de enquetes e ao logger.
type API struct {
	service VotingService
	logger  *slog.Logger
}

func New(service VotingService, logger *slog.Logger) *API {
	return &API{service: service, logger: logger}
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", health.LiveHandler())
	mux.HandleFunc("POST /api/polls", a.criarEnquete)
	mux.HandleFunc("GET /api/polls/{pollId}", a.obterEnquete)
	mux.HandleFunc("POST /api/polls/{pollId}/participant-auth", a.autenticarParticipante)
	mux.HandleFunc("POST /api/polls/{pollId}/vote", a.registrarVoto)
	mux.HandleFunc("GET /api/polls/{pollId}/stats", a.obterEstatisticas)
	mux.HandleFunc("GET /api/polls/{pollId}/activity", a.listarAtividade)
}

type criarEnqueteRequest struct {
	Title           string `json:"title"`
	VoteType        string `json:"voteType"`
	PeriodStartDate string `json:"periodStartDate"`
	PeriodEndDate   string `json:"periodEndDate"`
}

type criarEnqueteResponse struct {
	Message       string `json:"message"`
	PollID        string `json:"pollId"`
	ShareableLink string `json:"shareableLink"`
}

func (a *API) criarEnquete(w http.ResponseWriter, r *http.Request) {
	var req criarEnqueteRequest
	if !a.decodificar(w, r, &req) {
		return
	}

	criada, err := a.service.CreatePoll(r.Context(), voting.CreatePollInput{
		Title:       req.Title,
		VoteType:    req.VoteType,
		PeriodStart: req.PeriodStartDate,
		PeriodEnd:   req.PeriodEndDate,
	})
	if err != nil {
		a.responderErro(w, err, "op", "create_poll")
		return
	}

	responderJSON(w, http.StatusCreated, criarEnqueteResponse{
		Message:       "Enquete criada com sucesso",
		PollID:        string(criada.Poll.ID),
		ShareableLink: criada.ShareLink,
	})
}

func (a *API) obterEnquete(w http.ResponseWriter, r *http.Request) {
	id, ok := pollIDFromPath(w, r)
	if !ok {
		return
	}

	poll, err := a.service.GetPoll(r.Context(), id)
	if err != nil {
		a.responderErro(w, err, "op", "get_poll", "poll", id)
		return
	}

	responderJSON(w, http.StatusOK, poll)
}

type credenciaisRequest struct {
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

type participanteResponse struct {
	Nickname string `json:"nickname"`
}

type autenticacaoResponse struct {
	Success               bool                 `json:"success"`
	Registered            bool                 `json:"registered"`
	Participant           participanteResponse `json:"participant"`
	PreviousSelectedDates []domain.Date        `json:"previousSelectedDates"`
}

func (a *API) autenticarParticipante(w http.ResponseWriter, r *http.Request) {
	id, ok := pollIDFromPath(w, r)
	if !ok {
		return
	}

	var req credenciaisRequest
	if !a.decodificar(w, r, &req) {
		return
	}

	res, err := a.service.AuthenticateOrRegister(r.Context(), id, req.Nickname, req.Password)
	if err != nil {
		a.responderErro(w, err, "op", "participant_auth", "poll", id, "nickname", req.Nickname)
		return
	}

	responderJSON(w, http.StatusOK, autenticacaoResponse{
		Success:               true,
		Registered:            res.Registered,
		Participant:           participanteResponse{Nickname: res.Nickname},
		PreviousSelectedDates: res.PreviousSelection,
	})
}

type votoRequest struct {
	Nickname      string   `json:"nickname"`
	Password      string   `json:"password"`
	SelectedDates []string `json:"selectedDates"`
}

func (a *API) registrarVoto(w http.ResponseWriter, r *http.Request) {
	id, ok := pollIDFromPath(w, r)
	if !ok {
		return
	}

	var req votoRequest
	if !a.decodificar(w, r, &req) {
		return
	}

	if err := a.service.SubmitVote(r.Context(), id, req.Nickname, req.Password, req.SelectedDates); err != nil {
		a.responderErro(w, err, "op", "vote", "poll", id, "nickname", req.Nickname)
		return
	}

	responderJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Voto registrado com sucesso",
	})
}

func (a *API) obterEstatisticas(w http.ResponseWriter, r *http.Request) {
	id, ok := pollIDFromPath(w, r)
	if !ok {
		return
	}

	stats, err := a.service.Stats(r.Context(), id)
	if err != nil {
		a.responderErro(w, err, "op", "stats", "poll", id)
		return
	}

	responderJSON(w, http.StatusOK, stats)
}

func (a *API) listarAtividade(w http.ResponseWriter, r *http.Request) {
	id, ok := pollIDFromPath(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			responderJSON(w, http.StatusBadRequest, erroResponse{Error: "limit invalido"})
			return
		}
		limit = n
		if limit == 0 {
			// limit=0 explícito não é o mesmo que ausente
			limit = -1
		}
	}

	eventos, err := a.service.RecentActivity(r.Context(), id, limit)
	if err != nil {
		a.responderErro(w, err, "op", "activity", "poll", id)
		return
	}

	responderJSON(w, http.StatusOK, eventos)
}

// pollIDFromPath recusa ids que não são ULID com 404, sem consultar o serviço.
func pollIDFromPath(w http.ResponseWriter, r *http.Request) (domain.PollID, bool) {
	raw := r.PathValue("pollId")
	if !ids.Valid(raw) {
		responderJSON(w, http.StatusNotFound, erroResponse{Error: voting.ErrPollNotFound.Error()})
		return "", false
	}
	return domain.PollID(raw), true
}

func (a *API) decodificar(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		a.logger.Warn("payload invalido", "path", r.URL.Path, "err", err)
		responderJSON(w, http.StatusBadRequest, erroResponse{Error: "payload invalido"})
		return false
	}
	return true
}

type erroResponse struct {
	Error string `json:"error"`
}

func responderJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// responderErro traduz o erro do serviço em status; falhas internas saem com mensagem genérica.
func (a *API) responderErro(w http.ResponseWriter, err error, attrs ...any) {
	status := statusFromError(err)
	msg := err.Error()

	if status == http.StatusInternalServerError {
		msg = mensagemErroInterno
		a.logger.Error("falha interna", append(attrs, "err", err)...)
	} else {
		a.logger.Warn("requisicao recusada", append(attrs, "status", status, "err", err)...)
	}

	responderJSON(w, status, erroResponse{Error: msg})
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, voting.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, voting.ErrPollNotFound):
		return http.StatusNotFound
	case errors.Is(err, voting.ErrNotRegistered):
		return http.StatusForbidden
	case errors.Is(err, voting.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
