package mongo

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func genrePattern(t *testing.T, clause bson.M) string {
	t.Helper()
	match, ok := clause["genres"].(bson.M)["$elemMatch"].(bson.M)
	if !ok {
		t.Fatalf("clause = %+v", clause)
	}
	return match["$regex"].(string)
}

func TestGenreFilterEscapesMetacharacters(t *testing.T) {
	filter := genreFilter([]string{"Sci-Fi (Classic)"})

	if got := genrePattern(t, filter); got != `Sci-Fi \(Classic\)` {
		t.Errorf("pattern = %q, want quoted parentheses", got)
	}
}

func TestGenreFilterCombinesWithOr(t *testing.T) {
	filter := genreFilter([]string{"Action", "Drama"})

	clauses, ok := filter["$or"].([]bson.M)
	if !ok || len(clauses) != 2 {
		t.Fatalf("filter = %+v", filter)
	}
	if genrePattern(t, clauses[0]) != "Action" || genrePattern(t, clauses[1]) != "Drama" {
		t.Errorf("clauses = %+v", clauses)
	}
}
