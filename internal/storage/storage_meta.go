package storage

const commandsHashPrefix = "commands_hash:"

// CommandsHash returns the hash of the slash definitions last registered for
// scope (a guild ID, or "global").
func (s *Storage) CommandsHash(scope string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var hash string
	if _, err := s.ds.Get(commandsHashPrefix+scope, &hash); err != nil {
		return "", err
	}
	return hash, nil
}

// SetCommandsHash stores hash for scope; an empty hash forgets it.
func (s *Storage) SetCommandsHash(scope, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if hash == "" {
		s.ds.Delete(commandsHashPrefix + scope)
		return nil
	}
	return s.ds.Put(commandsHashPrefix+scope, hash)
}
