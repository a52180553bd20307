package odds

import (
	"context"
	"math"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Validator confere a odd pedida numa colocação back/lay contra a cotação
// corrente publicada pelo feed no Redis. O feed em si é colaborador externo;
// aqui só se lê a chave "odds:{marketID}:{selection}".
type Validator struct {
	Rdb *redis.Client
	// Tolerance é o desvio absoluto aceito entre a odd pedida e a corrente.
	Tolerance float64
}

func NewValidator(r *redis.Client, tolerance float64) *Validator {
	return &Validator{Rdb: r, Tolerance: tolerance}
}

// CurrentOdd retorna a cotação corrente, ou ok=false quando não há cotação
// em cache; ausência nunca bloqueia a colocação.
func (v *Validator) CurrentOdd(ctx context.Context, marketID, selection string) (float64, bool) {
	val, err := v.Rdb.Get(ctx, "odds:"+marketID+":"+selection).Result()
	if err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Diverged informa se a odd pedida está fora da tolerância em relação à
// cotação corrente. Sem cotação em cache, nunca diverge.
func (v *Validator) Diverged(ctx context.Context, marketID, selection string, requested float64) (current float64, diverged bool) {
	cur, ok := v.CurrentOdd(ctx, marketID, selection)
	if !ok {
		return 0, false
	}
	return cur, math.Abs(cur-requested) > v.Tolerance
}
