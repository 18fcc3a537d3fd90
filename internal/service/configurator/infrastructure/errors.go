package infrastructure

import (
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"velocraft/internal/service/configurator/domain"
)

// storageErr 把驱动错误包装为 StorageError 并附带调用栈。
// gorm.ErrRecordNotFound 映射为调用方给出的领域哨兵错误。
func storageErr(op string, err error, notFound error) error {
	if err == nil {
		return nil
	}
	if notFound != nil && stderrors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return errors.WithStack(&domain.StorageError{Op: op, Err: err})
}

// txErr 额外满足 errors.Is(err, domain.ErrTransactionFailed)。
func txErr(op string, err error) error {
	return fmt.Errorf("%w: %w", domain.ErrTransactionFailed, storageErr(op, err, nil))
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.New().String()
}
