package storefront

// Connection sizes requested from the storefront.
const (
	listVariants   = 5
	listImages     = 1
	detailVariants = 10
	detailImages   = 5
	cartLines      = 100
	// MaxProducts is the largest page the storefront serves in one request.
	MaxProducts = 250
)

const productFields = `
fragment ProductFields on Product {
  id
  title
  handle
  description
  priceRange {
    minVariantPrice {
      amount
      currencyCode
    }
  }
  variants(first: $variantCount) {
    edges {
      node {
        id
        title
        price {
          amount
          currencyCode
        }
        availableForSale
      }
    }
  }
  images(first: $imageCount) {
    edges {
      node {
        url
        altText
      }
    }
  }
}
`

const cartFields = `
fragment CartFields on Cart {
  id
  checkoutUrl
  totalQuantity
  cost {
    totalAmount {
      amount
      currencyCode
    }
  }
  lines(first: $lineCount) {
    edges {
      node {
        id
        quantity
        merchandise {
          ... on ProductVariant {
            id
            title
            price {
              amount
              currencyCode
            }
            availableForSale
            product {
              title
            }
          }
        }
      }
    }
  }
}
`

const productsQuery = `query Products($first: Int!, $variantCount: Int!, $imageCount: Int!) {
  products(first: $first) {
    edges {
      node {
        ...ProductFields
      }
    }
  }
}
` + productFields

const productByHandleQuery = `query ProductByHandle($handle: String!, $variantCount: Int!, $imageCount: Int!) {
  product(handle: $handle) {
    ...ProductFields
  }
}
` + productFields

const cartCreateMutation = `mutation CreateCart($variantId: ID!, $quantity: Int!, $lineCount: Int!) {
  cartCreate(input: { lines: [{ merchandiseId: $variantId, quantity: $quantity }] }) {
    cart {
      ...CartFields
    }
    userErrors {
      field
      message
    }
  }
}
` + cartFields

const cartLinesAddMutation = `mutation AddToCart($cartId: ID!, $variantId: ID!, $quantity: Int!, $lineCount: Int!) {
  cartLinesAdd(cartId: $cartId, lines: [{ merchandiseId: $variantId, quantity: $quantity }]) {
    cart {
      ...CartFields
    }
    userErrors {
      field
      message
    }
  }
}
` + cartFields

const cartQuery = `query GetCart($cartId: ID!, $lineCount: Int!) {
  cart(id: $cartId) {
    ...CartFields
  }
}
` + cartFields
