package entity

// Machine конечный автомат с явной таблицей разрешённых переходов.
// Переход в то же состояние допустим, только если ребро S->S объявлено явно:
// так повторный вход перезапускает таймеры через OnEnter.
type Machine[S comparable] struct {
	current S
	edges   map[S]map[S]struct{}
	onEnter map[S]func(from S)
}

// NewMachine создаёт автомат в начальном состоянии
func NewMachine[S comparable](initial S) *Machine[S] {
	return &Machine[S]{
		current: initial,
		edges:   make(map[S]map[S]struct{}),
		onEnter: make(map[S]func(from S)),
	}
}

// Allow объявляет переходы from -> to...
func (m *Machine[S]) Allow(from S, to ...S) *Machine[S] {
	set, ok := m.edges[from]
	if !ok {
		set = make(map[S]struct{}, len(to))
		m.edges[from] = set
	}
	for _, s := range to {
		set[s] = struct{}{}
	}
	return m
}

// OnEnter регистрирует обработчик входа в состояние
func (m *Machine[S]) OnEnter(state S, fn func(from S)) *Machine[S] {
	m.onEnter[state] = fn
	return m
}

// Current возвращает текущее состояние
func (m *Machine[S]) Current() S {
	return m.current
}

// Is сравнивает текущее состояние с переданным
func (m *Machine[S]) Is(state S) bool {
	return m.current == state
}

// Can проверяет, разрешён ли переход из текущего состояния
func (m *Machine[S]) Can(to S) bool {
	_, ok := m.edges[m.current][to]
	return ok
}

// Transition выполняет переход, если он разрешён. Возвращает false, если переход запрещён.
func (m *Machine[S]) Transition(to S) bool {
	if !m.Can(to) {
		return false
	}
	m.enter(to)
	return true
}

// Force переводит автомат в состояние без проверки таблицы (сброс при респауне)
func (m *Machine[S]) Force(to S) {
	m.enter(to)
}

func (m *Machine[S]) enter(to S) {
	from := m.current
	m.current = to
	if fn, ok := m.onEnter[to]; ok {
		fn(from)
	}
}
