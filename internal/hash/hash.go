package hash

import "golang.org/x/crypto/bcrypt"

// MinCost is the lowest bcrypt cost a Hasher will use.
const MinCost = 10

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

type Hasher struct {
	Cost int
}

func New(cost int) Hasher {
	if cost < MinCost {
		cost = MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return Hasher{Cost: cost}
}

// Hash returns a salted bcrypt hash; every call draws a new salt.
func (h Hasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost < MinCost {
		cost = MinCost
	}
	hashbytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashbytes), nil
}

func (h Hasher) Verify(password, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}
