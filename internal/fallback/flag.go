package fallback

import "sync/atomic"

// Flag — липкий признак перехода сервиса на демо-данные.
// Взводится при первой ошибке "relation does not exist" и не сбрасывается
// до конца жизни процесса: считаем, что отсутствующие таблицы не появятся
// посреди сессии
type Flag struct {
	tripped atomic.Bool
}

// Tripped сообщает, переведен ли сервис на демо-данные
func (f *Flag) Tripped() bool {
	return f.tripped.Load()
}

// Trip переводит сервис на демо-данные
func (f *Flag) Trip() {
	f.tripped.Store(true)
}
