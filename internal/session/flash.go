package session

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Level   string `json:"level"` // "success", "warning", "danger"
	Message string `json:"message"`
}

const flashKey = "flash"

// AddFlash queues a message. Fire-and-forget: the writer never reads it back.
func (s *Session) AddFlash(level, message string) {
	var flashes []Flash
	s.GetJSON(flashKey, &flashes)
	flashes = append(flashes, Flash{Level: level, Message: message})
	s.SetJSON(flashKey, flashes)
}

// PopFlashes returns queued messages and clears them.
func (s *Session) PopFlashes() []Flash {
	var flashes []Flash
	if !s.GetJSON(flashKey, &flashes) {
		return nil
	}
	s.Remove(flashKey)
	return flashes
}
