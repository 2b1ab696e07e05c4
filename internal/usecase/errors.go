package usecase

import (
	"errors"
	"fmt"
)

var (
	ErrUpstream            = errors.New("upstream error")
	ErrRepository          = errors.New("repository error")
	ErrInvalidQualityIndex = errors.New("invalid quality index")
)

func wrapUpstream(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}

func wrapRepo(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrRepository, err)
}
