package redisx

import "fmt"

const (
	// checkout:draft:{user_id} -> JSON checkout draft
	keyCheckoutDraft = "checkout:draft:%s"
	// checkout:lock:{user_id} -> random owner token while a submit runs
	keyCheckoutLock = "checkout:lock:%s"
)

func CheckoutDraftKey(userID string) string {
	return fmt.Sprintf(keyCheckoutDraft, userID)
}

func CheckoutLockKey(userID string) string {
	return fmt.Sprintf(keyCheckoutLock, userID)
}
