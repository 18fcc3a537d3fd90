// internal/service/configurator/domain/errors.go
package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrProductNotFound       = errors.New("product not found")
	ErrPartTypeNotFound      = errors.New("part type not found")
	ErrPartOptionNotFound    = errors.New("part option not found")
	ErrConstraintNotFound    = errors.New("constraint not found")
	ErrPricingRuleNotFound   = errors.New("pricing rule not found")
	ErrConfigurationNotFound = errors.New("configuration not found")
	ErrCartNotFound          = errors.New("cart not found")
	ErrCartItemNotFound      = errors.New("cart item not found")
	ErrPromoCodeNotFound     = errors.New("promo code not found")

	// ErrCartConflict 表示购物车在重试次数内一直被并发修改。
	ErrCartConflict = errors.New("cart was modified concurrently")

	// ErrStorageUnavailable 由仓储层抛出，服务层原样向上传递，不做重试。
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrTransactionFailed 表示多行写入失败，调用方应认为没有任何数据被持久化。
	ErrTransactionFailed = errors.New("transaction failed")

	ErrInvalidConfiguration = errors.New("configuration is invalid")
	ErrInvalidSelection     = errors.New("invalid selection")
)

// StorageError 包装底层驱动错误，errors.Is(err, ErrStorageUnavailable) 为真。
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorageUnavailable, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorageUnavailable }

// InvalidConfigurationError 携带校验错误，供购物车拒绝加购时返回给调用方。
type InvalidConfigurationError struct {
	ConfigurationID string
	Errors          []string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s is invalid: %s", e.ConfigurationID, strings.Join(e.Errors, "; "))
}

func (e *InvalidConfigurationError) Is(target error) bool { return target == ErrInvalidConfiguration }
