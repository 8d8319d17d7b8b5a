package shopify

// GraphQL operation documents for the Admin API, one constant per operation.

const shopSettingsQuery = `#graphql
  query {
    shop {
      id
      currencyCode
      metafields(namespace: "giftkit_settings", first: 20) {
        edges {
          node {
            key
            value
          }
        }
      }
    }
  }
`

const metafieldsSetMutation = `#graphql
  mutation metafieldsSet($metafields: [MetafieldsSetInput!]!) {
    metafieldsSet(metafields: $metafields) {
      metafields { id }
      userErrors { message }
    }
  }
`

const getProductWithVariantsQuery = `#graphql
  query GetProductWithVariants($handle: String!) {
    productByHandle(handle: $handle) {
      id
      title
      handle
      variants(first: 100) {
        edges {
          node {
            id
            sku
            price
          }
        }
      }
      options {
        id
        name
        position
      }
      media(first: 1, query: "media_type:IMAGE") {
        nodes {
          ... on MediaImage {
            id
          }
        }
      }
    }
  }
`

const createProductMutation = `#graphql
  mutation CreateGiftCardProduct($input: ProductInput!) {
    productCreate(input: $input) {
      product {
        id
        title
        handle
        options {
          id
          name
          position
        }
        variants(first: 10) {
          edges {
            node {
              id
              price
              sku
            }
          }
        }
      }
      userErrors {
        field
        message
      }
    }
  }
`

const bulkUpdateVariantsMutation = `#graphql
  mutation productVariantsBulkUpdate($productId: ID!, $variants: [ProductVariantsBulkInput!]!) {
    productVariantsBulkUpdate(productId: $productId, variants: $variants) {
      productVariants {
        id
        price
        sku
      }
      userErrors {
        field
        message
      }
    }
  }
`

const bulkCreateVariantsMutation = `#graphql
  mutation BulkCreateVariant($productId: ID!, $variants: [ProductVariantsBulkInput!]!) {
    productVariantsBulkCreate(productId: $productId, variants: $variants) {
      productVariants {
        id
        price
        sku
      }
      userErrors {
        field
        message
      }
    }
  }
`

const productImageSetMutation = `#graphql
  mutation productSet($input: ProductSetInput!) {
    productSet(input: $input) {
      product {
        id
      }
      userErrors {
        field
        message
      }
    }
  }
`

const metafieldDefinitionsQuery = `#graphql
  query metafieldDefinitions($namespace: String!, $key: String!, $ownerType: MetafieldOwnerType!) {
    metafieldDefinitions(first: 1, namespace: $namespace, key: $key, ownerType: $ownerType) {
      nodes {
        id
        name
        namespace
        key
      }
    }
  }
`

const metafieldDefinitionCreateMutation = `#graphql
  mutation metafieldDefinitionCreate($definition: MetafieldDefinitionInput!) {
    metafieldDefinitionCreate(definition: $definition) {
      createdDefinition {
        id
        name
        namespace
        key
      }
      userErrors {
        field
        message
        code
      }
    }
  }
`

const metafieldDefinitionPinMutation = `#graphql
  mutation metafieldDefinitionPin($definitionId: ID!) {
    metafieldDefinitionPin(definitionId: $definitionId) {
      pinnedDefinition {
        id
        pinnedPosition
      }
      userErrors {
        field
        message
      }
    }
  }
`

const giftCardCreateMutation = `#graphql
  mutation giftCardCreate($input: GiftCardCreateInput!) {
    giftCardCreate(input: $input) {
      giftCard {
        id
        lastCharacters
        initialValue {
          amount
          currencyCode
        }
      }
      userErrors {
        message
        field
        code
      }
    }
  }
`

const webhookSubscriptionCreateMutation = `#graphql
  mutation webhookSubscriptionCreate($topic: WebhookSubscriptionTopic!, $webhookSubscription: WebhookSubscriptionInput!) {
    webhookSubscriptionCreate(topic: $topic, webhookSubscription: $webhookSubscription) {
      webhookSubscription {
        id
      }
      userErrors {
        field
        message
      }
    }
  }
`
