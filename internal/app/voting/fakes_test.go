package voting

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/marcelojr/quando-pode/internal/domain"
)

type fakePollRepo struct {
	mu      sync.Mutex
	polls   map[domain.PollID]domain.Poll
	errFind error
	errSave error
	finds   int
	// afterFind roda uma vez depois da leitura, fora do lock; simula escrita concorrente no meio de um GET.
	afterFind func()
}

func newFakePollRepo() *fakePollRepo {
	return &fakePollRepo{polls: make(map[domain.PollID]domain.Poll)}
}

func (f *fakePollRepo) Create(_ context.Context, p domain.Poll) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errSave != nil {
		return f.errSave
	}
	f.polls[p.ID] = p
	return nil
}

func (f *fakePollRepo) FindByID(_ context.Context, id domain.PollID) (domain.Poll, error) {
	p, err := f.find(id)
	if hook := f.afterFind; hook != nil {
		f.afterFind = nil
		hook()
	}
	return p, err
}

func (f *fakePollRepo) find(id domain.PollID) (domain.Poll, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++
	if f.errFind != nil {
		return domain.Poll{}, f.errFind
	}
	p, ok := f.polls[id]
	if !ok {
		return domain.Poll{}, domain.ErrNotFound
	}
	return p, nil
}

type participantKey struct {
	poll     domain.PollID
	nickname string
}

type fakeParticipantRepo struct {
	mu           sync.Mutex
	participants map[participantKey]domain.Participant
	creates      int
	errFind      error
	// beforeCreate roda antes da inserção; usado para simular outra requisição vencendo a corrida.
	beforeCreate func()
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{participants: make(map[participantKey]domain.Participant)}
}

func (f *fakeParticipantRepo) Create(_ context.Context, p domain.Participant) error {
	if f.beforeCreate != nil {
		hook := f.beforeCreate
		f.beforeCreate = nil
		hook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := participantKey{p.PollID, p.Nickname}
	if _, ok := f.participants[key]; ok {
		return domain.ErrAlreadyExists
	}
	f.creates++
	f.participants[key] = p
	return nil
}

func (f *fakeParticipantRepo) Find(_ context.Context, pollID domain.PollID, nickname string) (domain.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errFind != nil {
		return domain.Participant{}, f.errFind
	}
	p, ok := f.participants[participantKey{pollID, nickname}]
	if !ok {
		return domain.Participant{}, domain.ErrNotFound
	}
	return p, nil
}

func (f *fakeParticipantRepo) put(p domain.Participant) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.participants[participantKey{p.PollID, p.Nickname}] = p
}

// fakeUnitOfWork serializa as transações com um mutex e só aplica as escritas se fn terminar sem erro.
type fakeUnitOfWork struct {
	mu           sync.Mutex
	polls        *fakePollRepo
	participants *fakeParticipantRepo
	errSelection error
	errLedger    error
}

func (u *fakeUnitOfWork) RunInPollTx(ctx context.Context, id domain.PollID, fn func(context.Context, domain.PollTx) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	poll, err := u.polls.FindByID(ctx, id)
	if err != nil {
		return err
	}

	tx := &fakePollTx{uow: u, poll: poll}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	if tx.ledger != nil {
		poll.Options = tx.ledger
		u.polls.mu.Lock()
		u.polls.polls[id] = poll
		u.polls.mu.Unlock()
	}
	if tx.selection != nil {
		u.participants.put(*tx.selection)
	}
	return nil
}

type fakePollTx struct {
	uow       *fakeUnitOfWork
	poll      domain.Poll
	ledger    domain.Ledger
	selection *domain.Participant
}

func (t *fakePollTx) Ledger(context.Context) (domain.Ledger, error) {
	if t.uow.errLedger != nil {
		return nil, t.uow.errLedger
	}
	if err := t.poll.Options.Validate(); err != nil {
		return nil, err
	}
	return t.poll.Options, nil
}

func (t *fakePollTx) SaveLedger(_ context.Context, l domain.Ledger) error {
	t.ledger = l
	return nil
}

func (t *fakePollTx) SaveSelection(ctx context.Context, nickname string, dates []domain.Date, votedAt time.Time) error {
	if t.uow.errSelection != nil {
		return t.uow.errSelection
	}
	p, err := t.uow.participants.Find(ctx, t.poll.ID, nickname)
	if err != nil {
		return err
	}
	p.SelectedDates = append([]domain.Date{}, dates...)
	p.LastVotedAt = &votedAt
	t.selection = &p
	return nil
}

type fakeCache struct {
	mu          sync.Mutex
	polls       map[domain.PollID]domain.Poll
	geracoes    map[domain.PollID]int64
	errGet      error
	errGen      error
	invalidated []domain.PollID
	sets        int
}

func newFakeCache() *fakeCache {
	return &fakeCache{polls: make(map[domain.PollID]domain.Poll), geracoes: make(map[domain.PollID]int64)}
}

func (c *fakeCache) Get(_ context.Context, id domain.PollID) (domain.Poll, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.errGet != nil {
		return domain.Poll{}, false, c.errGet
	}
	p, ok := c.polls[id]
	return p, ok, nil
}

func (c *fakeCache) Generation(_ context.Context, id domain.PollID) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.errGen != nil {
		return 0, c.errGen
	}
	return c.geracoes[id], nil
}

func (c *fakeCache) Set(_ context.Context, p domain.Poll, generation int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.geracoes[p.ID] != generation {
		return false, nil
	}
	c.sets++
	c.polls[p.ID] = p
	return true, nil
}

func (c *fakeCache) Invalidate(_ context.Context, id domain.PollID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.geracoes[id]++
	delete(c.polls, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}

type fakeQueue struct {
	mu         sync.Mutex
	eventos    []domain.ActivityEvent
	errPublish error
}

func (q *fakeQueue) Publish(_ context.Context, ev domain.ActivityEvent) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.errPublish != nil {
		return q.errPublish
	}
	q.eventos = append(q.eventos, ev)
	return nil
}

func (q *fakeQueue) Consume(context.Context, func(context.Context, domain.ActivityEvent) error) error {
	return errors.New("nao usado")
}

func (q *fakeQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.eventos)
}

type fakeCounter struct {
	mu      sync.Mutex
	valores map[string]int64
	err     error
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{valores: make(map[string]int64)}
}

func (c *fakeCounter) Incr(_ context.Context, key string, delta int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	c.valores[key] += delta
	return c.valores[key], nil
}

func (c *fakeCounter) Get(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	return c.valores[key], nil
}

func (c *fakeCounter) GetMany(_ context.Context, keys []string) (map[string]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	out := make(map[string]int64, len(keys))
	for _, k := range keys {
		out[k] = c.valores[k]
	}
	return out, nil
}

type fakeActivityRepo struct {
	mu      sync.Mutex
	eventos []domain.ActivityEvent
}

func (r *fakeActivityRepo) Save(_ context.Context, ev domain.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.eventos = append(r.eventos, ev)
	return nil
}

func (r *fakeActivityRepo) ListRecent(_ context.Context, pollID domain.PollID, limit int) ([]domain.ActivityEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ActivityEvent
	for i := len(r.eventos) - 1; i >= 0 && len(out) < limit; i-- {
		if r.eventos[i].PollID == pollID {
			out = append(out, r.eventos[i])
		}
	}
	return out, nil
}

func (r *fakeActivityRepo) CountByKind(_ context.Context, pollID domain.PollID) (map[domain.ActivityKind]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[domain.ActivityKind]int64)
	for _, ev := range r.eventos {
		if ev.PollID == pollID {
			out[ev.Kind]++
		}
	}
	return out, nil
}
