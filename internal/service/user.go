package service

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/templui/storyloom/internal/model"
	"github.com/templui/storyloom/internal/repository"
)

const MaxBioLength = 500

var ErrBioTooLong = fmt.Errorf("bio must be %d characters or less", MaxBioLength)

type UserService struct {
	userRepository repository.UserRepository
}

func NewUserService(userRepository repository.UserRepository) *UserService {
	return &UserService{
		userRepository: userRepository,
	}
}

func (s *UserService) ByID(id string) (*model.User, error) {
	return s.userRepository.ByID(id)
}

func (s *UserService) ByUsername(username string) (*model.User, error) {
	return s.userRepository.ByUsername(strings.TrimSpace(strings.ToLower(username)))
}

func (s *UserService) UpdateBio(userID, bio string) error {
	bio = strings.TrimSpace(bio)
	if utf8.RuneCountInString(bio) > MaxBioLength {
		return ErrBioTooLong
	}

	err := s.userRepository.UpdateBio(userID, bio)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("failed to update bio: %w", err)
	}

	return nil
}
