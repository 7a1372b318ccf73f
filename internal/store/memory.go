// Package store provides the in-memory persistence layer. Records live in
// process-local maps keyed by auto-increment integer ids; relational lookups
// are linear scans. The dataset is small (one learner's lessons and chats)
// and nothing survives a restart, which is an accepted property of the
// service, not a bug.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/jononovo/codementor/internal/domain"
)

// MemStore implements domain.Store. Safe for concurrent use.
type MemStore struct {
	mu sync.RWMutex

	lessons  map[int]domain.Lesson
	slides   map[int]domain.Slide
	chats    map[int]domain.Chat
	messages map[int]domain.Message

	nextLessonID  int
	nextSlideID   int
	nextChatID    int
	nextMessageID int
}

var _ domain.Store = (*MemStore)(nil)

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		lessons:       make(map[int]domain.Lesson),
		slides:        make(map[int]domain.Slide),
		chats:         make(map[int]domain.Chat),
		messages:      make(map[int]domain.Message),
		nextLessonID:  1,
		nextSlideID:   1,
		nextChatID:    1,
		nextMessageID: 1,
	}
}

func (s *MemStore) CreateLesson(lesson domain.Lesson) (domain.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lesson.ID = s.nextLessonID
	s.nextLessonID++
	lesson.CreatedAt = time.Now()
	s.lessons[lesson.ID] = lesson
	return lesson, nil
}

func (s *MemStore) GetLesson(id int) (domain.Lesson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lesson, ok := s.lessons[id]
	if !ok {
		return domain.Lesson{}, domain.ErrNotFound
	}
	return lesson, nil
}

func (s *MemStore) ListLessons() ([]domain.Lesson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lessons := make([]domain.Lesson, 0, len(s.lessons))
	for _, lesson := range s.lessons {
		lessons = append(lessons, lesson)
	}
	sort.Slice(lessons, func(i, j int) bool { return lessons[i].ID < lessons[j].ID })
	return lessons, nil
}

func (s *MemStore) UpdateLesson(lesson domain.Lesson) (domain.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.lessons[lesson.ID]
	if !ok {
		return domain.Lesson{}, domain.ErrNotFound
	}
	lesson.CreatedAt = existing.CreatedAt
	s.lessons[lesson.ID] = lesson
	return lesson, nil
}

// DeleteLesson removes a lesson and its slides.
func (s *MemStore) DeleteLesson(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lessons[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.lessons, id)
	for slideID, slide := range s.slides {
		if slide.LessonID == id {
			delete(s.slides, slideID)
		}
	}
	return nil
}

func (s *MemStore) CreateSlide(slide domain.Slide) (domain.Slide, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slide.ID = s.nextSlideID
	s.nextSlideID++
	s.slides[slide.ID] = slide
	return slide, nil
}

func (s *MemStore) GetSlide(id int) (domain.Slide, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slide, ok := s.slides[id]
	if !ok {
		return domain.Slide{}, domain.ErrNotFound
	}
	return slide, nil
}

func (s *MemStore) UpdateSlide(slide domain.Slide) (domain.Slide, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.slides[slide.ID]; !ok {
		return domain.Slide{}, domain.ErrNotFound
	}
	s.slides[slide.ID] = slide
	return slide, nil
}

// SlidesByLesson returns a lesson's slides sorted by their ordering integer.
func (s *MemStore) SlidesByLesson(lessonID int) ([]domain.Slide, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var slides []domain.Slide
	for _, slide := range s.slides {
		if slide.LessonID == lessonID {
			slides = append(slides, slide)
		}
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].Order < slides[j].Order })
	return slides, nil
}

func (s *MemStore) CreateChat(chat domain.Chat) (domain.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat.ID = s.nextChatID
	s.nextChatID++
	chat.CreatedAt = time.Now()
	s.chats[chat.ID] = chat
	return chat, nil
}

func (s *MemStore) GetChat(id int) (domain.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chat, ok := s.chats[id]
	if !ok {
		return domain.Chat{}, domain.ErrNotFound
	}
	return chat, nil
}

func (s *MemStore) ListChats() ([]domain.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chats := make([]domain.Chat, 0, len(s.chats))
	for _, chat := range s.chats {
		chats = append(chats, chat)
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i].ID < chats[j].ID })
	return chats, nil
}

func (s *MemStore) CreateMessage(msg domain.Message) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg.ID = s.nextMessageID
	s.nextMessageID++
	msg.CreatedAt = time.Now()
	s.messages[msg.ID] = msg
	return msg, nil
}

// MessagesByChat returns a chat's messages in creation order.
func (s *MemStore) MessagesByChat(chatID int) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var msgs []domain.Message
	for _, msg := range s.messages {
		if msg.ChatID == chatID {
			msgs = append(msgs, msg)
		}
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].ID < msgs[j].ID })
	return msgs, nil
}
