package flash

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"
)

// Storage persists the phrase.
type Storage interface {
	ReadPhrase() (Phrase, error)
	WritePhrase(Phrase) error
}

// MemStorage keeps the phrase in memory.
type MemStorage struct {
	phrase Phrase
	lock   sync.Mutex
}

// NewMemStorage creates an erased MemStorage.
func NewMemStorage() *MemStorage {
	return &MemStorage{phrase: ErasedPhrase()}
}

// ReadPhrase implements Storage.
func (s *MemStorage) ReadPhrase() (Phrase, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.phrase, nil
}

// WritePhrase implements Storage.
func (s *MemStorage) WritePhrase(p Phrase) error {
	s.lock.Lock()
	s.phrase = p
	s.lock.Unlock()
	return nil
}

// FileStorage keeps the phrase in an image file. A missing file reads
// as erased.
type FileStorage struct {
	Path string
}

// ReadPhrase implements Storage.
func (s *FileStorage) ReadPhrase() (Phrase, error) {
	data, err := ioutil.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return ErasedPhrase(), nil
	}
	if err != nil {
		return Phrase{}, err
	}
	if len(data) != PhraseSize {
		return Phrase{}, fmt.Errorf("flash image %s: size %d, expect %d", s.Path, len(data), PhraseSize)
	}
	var p Phrase
	copy(p[:], data)
	return p, nil
}

// WritePhrase implements Storage. The image is replaced atomically.
func (s *FileStorage) WritePhrase(p Phrase) error {
	tmp, err := ioutil.TempFile(filepath.Dir(s.Path), filepath.Base(s.Path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err = tmp.Write(p[:]); err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.Path)
}
