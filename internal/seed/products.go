package seed

import "github.com/ariefcatur/go-clothing-rental/internal/store"

const (
	imgGown  = "https://www.frontierraas.com/pub/media/catalog/product/cache/74910300c4c00f257771c5afa25168a6/f/r/fr_gown_18_.jpg"
	imgSuit  = "https://5.imimg.com/data5/UD/IR/MY-3624146/women-business-suit.jpg"
	imgDress = "https://encrypted-tbn0.gstatic.com/images?q=tbn:ANd9GcS1zTtMpzbljjLF2iQLOcvMWzpYnqR-K6hfUw&s"
	imgJump  = "https://assets.myntassets.com/w_412,q_60,dpr_2,fl_progressive/assets/images/25229024/2023/10/5/cebc02d2-d3c2-473d-9e56-cb90fb9ed6121696491498260GlobusBlackBasicJumpsuit1.jpg"
)

// SampleProducts is the starter catalog.
func SampleProducts() []store.Product {
	return []store.Product{
		{
			Name:        "Elegant Evening Gown",
			Description: "Beautiful black evening gown perfect for formal events. Made with premium silk fabric and intricate beadwork.",
			Price:       50,
			Category:    "formal",
			Stock:       5,
			Sizes:       []string{"S", "M", "L"},
			Color:       "Black",
			Material:    "Silk",
			Brand:       "Luxury Couture",
			ImageURL:    imgGown,
		},
		{
			Name:        "Casual Summer Dress",
			Description: "Light and comfortable summer dress perfect for beach outings and casual gatherings.",
			Price:       25,
			Category:    "casual",
			Stock:       8,
			Sizes:       []string{"XS", "S", "M", "L"},
			Color:       "Blue",
			Material:    "Cotton",
			Brand:       "Summer Breeze",
			ImageURL:    imgDress,
		},
		{
			Name:        "Party Jumpsuit",
			Description: "Trendy jumpsuit for parties and events. Features a flattering cut and comfortable fit.",
			Price:       35,
			Category:    "party",
			Stock:       6,
			Sizes:       []string{"S", "M", "L"},
			Color:       "Red",
			Material:    "Polyester",
			Brand:       "Party Wear",
			ImageURL:    imgJump,
		},
		{
			Name:        "Business Suit",
			Description: "Professional business suit for formal occasions. Includes jacket and pants.",
			Price:       45,
			Category:    "formal",
			Stock:       4,
			Sizes:       []string{"M", "L", "XL"},
			Color:       "Navy Blue",
			Material:    "Wool",
			Brand:       "Executive Style",
			ImageURL:    imgGown,
		},
		{
			Name:        "Casual Jeans",
			Description: "Comfortable and stylish jeans perfect for everyday wear.",
			Price:       20,
			Category:    "casual",
			Stock:       10,
			Sizes:       []string{"28", "30", "32", "34"},
			Color:       "Blue",
			Material:    "Denim",
			Brand:       "Denim Co.",
			ImageURL:    imgGown,
		},
		{
			Name:        "Cocktail Dress",
			Description: "Elegant cocktail dress for special occasions. Features a flattering silhouette.",
			Price:       40,
			Category:    "party",
			Stock:       7,
			Sizes:       []string{"XS", "S", "M"},
			Color:       "Emerald Green",
			Material:    "Satin",
			Brand:       "Evening Elegance",
			ImageURL:    imgSuit,
		},
		{
			Name:        "Formal Blazer",
			Description: "Classic formal blazer perfect for business meetings and formal events.",
			Price:       55,
			Category:    "formal",
			Stock:       3,
			Sizes:       []string{"M", "L", "XL"},
			Color:       "Charcoal",
			Material:    "Wool Blend",
			Brand:       "Professional Wear",
			ImageURL:    imgSuit,
		},
		{
			Name:        "Summer T-Shirt",
			Description: "Comfortable cotton t-shirt perfect for summer days.",
			Price:       15,
			Category:    "casual",
			Stock:       12,
			Sizes:       []string{"S", "M", "L", "XL"},
			Color:       "White",
			Material:    "Cotton",
			Brand:       "Summer Basics",
			ImageURL:    imgGown,
		},
	}
}
