// SPDX-License-Identifier: MIT

package token

// saltTable is an interoperability constant reverse-engineered from the
// upstream aggregator's client. The entries carry no semantics; only exact
// byte identity matters. Do not edit, reorder, or "clean up" — a mismatch is
// not an error anywhere, the upstream just returns an empty source list.
var saltTable = [55]string{
	"Xk92LmqPz4",
	"b7TQn0wRf",
	"Jd3yVhc8K",
	"p5ZsWu1xNe",
	"Gq6rB9mTA",
	"v0CfY4jLsD",
	"Ht8aEk2Pw",
	"n3MzXr7bQu",
	"S1dGyc5oV",
	"e9KpJt0hZf",
	"W4mNq8sRx",
	"L6vAw3cEy",
	"u2FbHd9kTP",
	"o7RjZn1gM",
	"C5sVxQ4tyW",
	"i8BeKm6pL",
	"Ya3wUf0zNc",
	"r1GhTq9dJv",
	"D4nMy7xSE",
	"k0PzVb2eWu",
	"F6tRc8aHq",
	"m9JwLg3sYX",
	"Q2xEn5fKd",
	"z7UaPv1mBt",
	"N8cSk4rGy",
	"h3DfWz6qIo",
	"T5yMb0jVr",
	"a1KqXe9wPC",
	"E7vZt2nSm",
	"j4HgRu8cFx",
	"B0wYd5pQk",
	"s6NnCa3zLJ",
	"V9rFm1tEb",
	"g2QkJx7vUW",
	"M5zBs0yHc",
	"w8ThPe4aRd",
	"K3jVq6mNz",
	"c7YwGt1fXS",
	"R0bLk9uDp",
	"x4AeZh5sMv",
	"P6fCn2wJy",
	"t9SmQg8kBE",
	"Z1uWv4cRr",
	"d5XpKb7nGa",
	"H8qJz0eTf",
	"y3VcMw6xUk",
	"A7gNs1rZq",
	"l2EtYd9hSW",
	"U4kBf5vCm",
	"q6RxHn3jPz",
	"I9wSa7bYe",
	"f1MvQk2tDg",
	"O5cZp8uXw",
	"n0GyEr4sKJ",
	"J8dTu6mWb",
}
